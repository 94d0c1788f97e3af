package enums

import "fmt"

// ProductCategory classifies what a catalog product does when consumed.
type ProductCategory string

const (
	ProductCategoryMembershipUpgrade ProductCategory = "MEMBERSHIP_UPGRADE"
	ProductCategoryPayBonus          ProductCategory = "PAY_BONUS"
)

var validProductCategories = []ProductCategory{
	ProductCategoryMembershipUpgrade,
	ProductCategoryPayBonus,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
