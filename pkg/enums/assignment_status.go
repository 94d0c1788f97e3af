package enums

import "fmt"

// AssignmentStatus is the work lifecycle state of a single gig assignment.
type AssignmentStatus string

const (
	AssignmentStatusClaimed   AssignmentStatus = "CLAIMED"
	AssignmentStatusAccepted  AssignmentStatus = "ACCEPTED"
	AssignmentStatusDeclined  AssignmentStatus = "DECLINED"
	AssignmentStatusStarted   AssignmentStatus = "STARTED"
	AssignmentStatusSubmitted AssignmentStatus = "SUBMITTED"
	AssignmentStatusReviewed  AssignmentStatus = "REVIEWED"
	AssignmentStatusCompleted AssignmentStatus = "COMPLETED"
	AssignmentStatusCancelled AssignmentStatus = "CANCELLED"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusClaimed,
	AssignmentStatusAccepted,
	AssignmentStatusDeclined,
	AssignmentStatusStarted,
	AssignmentStatusSubmitted,
	AssignmentStatusReviewed,
	AssignmentStatusCompleted,
	AssignmentStatusCancelled,
}

// String implements fmt.Stringer.
func (s AssignmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (s AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
