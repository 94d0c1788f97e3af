package enums

import "fmt"

// MoneyReason classifies a money ledger entry.
type MoneyReason string

const (
	MoneyReasonPayout     MoneyReason = "PAYOUT"
	MoneyReasonAdjustment MoneyReason = "ADJUSTMENT"
)

var validMoneyReasons = []MoneyReason{
	MoneyReasonPayout,
	MoneyReasonAdjustment,
}

// String implements fmt.Stringer.
func (r MoneyReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known MoneyReason.
func (r MoneyReason) IsValid() bool {
	for _, candidate := range validMoneyReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseMoneyReason converts raw input into a MoneyReason.
func ParseMoneyReason(value string) (MoneyReason, error) {
	for _, candidate := range validMoneyReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid money reason %q", value)
}
