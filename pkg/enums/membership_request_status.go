package enums

import "fmt"

// MembershipRequestStatus tracks the lifecycle of a company join request.
type MembershipRequestStatus string

const (
	MembershipRequestPending  MembershipRequestStatus = "PENDING"
	MembershipRequestApproved MembershipRequestStatus = "APPROVED"
	MembershipRequestDenied   MembershipRequestStatus = "DENIED"
)

var validMembershipRequestStatuses = []MembershipRequestStatus{
	MembershipRequestPending,
	MembershipRequestApproved,
	MembershipRequestDenied,
}

// String implements fmt.Stringer.
func (s MembershipRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MembershipRequestStatus.
func (s MembershipRequestStatus) IsValid() bool {
	for _, candidate := range validMembershipRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMembershipRequestStatus converts raw input into a MembershipRequestStatus.
func ParseMembershipRequestStatus(value string) (MembershipRequestStatus, error) {
	for _, candidate := range validMembershipRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership request status %q", value)
}
