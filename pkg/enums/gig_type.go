package enums

import "fmt"

// GigType categorizes the kind of work a gig represents.
type GigType string

const (
	GigTypeStandard GigType = "STANDARD"
	GigTypeDelivery GigType = "DELIVERY"
	GigTypeAudit    GigType = "AUDIT"
)

var validGigTypes = []GigType{
	GigTypeStandard,
	GigTypeDelivery,
	GigTypeAudit,
}

// String implements fmt.Stringer.
func (t GigType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known GigType.
func (t GigType) IsValid() bool {
	for _, candidate := range validGigTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseGigType converts raw input into a GigType.
func ParseGigType(value string) (GigType, error) {
	for _, candidate := range validGigTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gig type %q", value)
}
