package enums

import "fmt"

// ReviewDecision is the outcome a reviewer records for an assignment.
type ReviewDecision string

const (
	ReviewDecisionApproved ReviewDecision = "APPROVED"
	ReviewDecisionRejected ReviewDecision = "REJECTED"
)

var validReviewDecisions = []ReviewDecision{
	ReviewDecisionApproved,
	ReviewDecisionRejected,
}

// String implements fmt.Stringer.
func (d ReviewDecision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known ReviewDecision.
func (d ReviewDecision) IsValid() bool {
	for _, candidate := range validReviewDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseReviewDecision converts raw input into a ReviewDecision.
func ParseReviewDecision(value string) (ReviewDecision, error) {
	for _, candidate := range validReviewDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid review decision %q", value)
}
