package enums

import "fmt"

// StarsReason classifies a stars ledger entry.
type StarsReason string

const (
	StarsReasonEarnedFromReview StarsReason = "EARNED_FROM_REVIEW"
	StarsReasonSpentOnProduct   StarsReason = "SPENT_ON_PRODUCT"
	StarsReasonAdjustment       StarsReason = "ADJUSTMENT"
)

var validStarsReasons = []StarsReason{
	StarsReasonEarnedFromReview,
	StarsReasonSpentOnProduct,
	StarsReasonAdjustment,
}

// String implements fmt.Stringer.
func (r StarsReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known StarsReason.
func (r StarsReason) IsValid() bool {
	for _, candidate := range validStarsReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStarsReason converts raw input into a StarsReason.
func ParseStarsReason(value string) (StarsReason, error) {
	for _, candidate := range validStarsReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stars reason %q", value)
}
