package enums

import "fmt"

// GigStatus is the gig's lifecycle state.
type GigStatus string

const (
	GigStatusDraft      GigStatus = "DRAFT"
	GigStatusOpen       GigStatus = "OPEN"
	GigStatusClaimed    GigStatus = "CLAIMED"
	GigStatusInProgress GigStatus = "IN_PROGRESS"
	GigStatusCompleted  GigStatus = "COMPLETED"
	GigStatusCancelled  GigStatus = "CANCELLED"
)

var validGigStatuses = []GigStatus{
	GigStatusDraft,
	GigStatusOpen,
	GigStatusClaimed,
	GigStatusInProgress,
	GigStatusCompleted,
	GigStatusCancelled,
}

// ClaimableGigStatuses are the states in which a gig may still be watched
// and claimed; they are also the states in which the price bump clock runs.
var ClaimableGigStatuses = []GigStatus{GigStatusDraft, GigStatusOpen}

// String implements fmt.Stringer.
func (s GigStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known GigStatus.
func (s GigStatus) IsValid() bool {
	for _, candidate := range validGigStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsClaimable reports whether the gig can still be watched or claimed.
func (s GigStatus) IsClaimable() bool {
	for _, candidate := range ClaimableGigStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseGigStatus converts raw input into a GigStatus.
func ParseGigStatus(value string) (GigStatus, error) {
	for _, candidate := range validGigStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gig status %q", value)
}
