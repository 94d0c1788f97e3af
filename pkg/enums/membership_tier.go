package enums

import "fmt"

// MembershipTier is the contractor loyalty tier unlocked via the shop.
type MembershipTier string

const (
	MembershipTierCopper   MembershipTier = "COPPER"
	MembershipTierBronze   MembershipTier = "BRONZE"
	MembershipTierSilver   MembershipTier = "SILVER"
	MembershipTierGold     MembershipTier = "GOLD"
	MembershipTierPlatinum MembershipTier = "PLATINUM"
	MembershipTierDiamond  MembershipTier = "DIAMOND"
)

var validMembershipTiers = []MembershipTier{
	MembershipTierCopper,
	MembershipTierBronze,
	MembershipTierSilver,
	MembershipTierGold,
	MembershipTierPlatinum,
	MembershipTierDiamond,
}

// String implements fmt.Stringer.
func (t MembershipTier) String() string {
	return string(t)
}

// Rank returns the tier's position in the ladder, COPPER being 0. Unknown
// tiers rank below COPPER.
func (t MembershipTier) Rank() int {
	for i, candidate := range validMembershipTiers {
		if candidate == t {
			return i
		}
	}
	return -1
}

// AtLeast reports whether t is the same tier as other or a higher one.
func (t MembershipTier) AtLeast(other MembershipTier) bool {
	return t.Rank() >= other.Rank()
}

// IsValid reports whether the value is a known MembershipTier.
func (t MembershipTier) IsValid() bool {
	for _, candidate := range validMembershipTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseMembershipTier converts raw input into a MembershipTier.
func ParseMembershipTier(value string) (MembershipTier, error) {
	for _, candidate := range validMembershipTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership tier %q", value)
}
