package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// Profile is the contractor-facing identity that owns the stars balance.
// StarsBalance is only ever mutated through the ledger; it must never go
// negative.
type Profile struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID            `gorm:"column:user_id;type:uuid;uniqueIndex;not null"`
	FirstName    string               `gorm:"column:first_name;not null"`
	LastName     string               `gorm:"column:last_name;not null"`
	Username     string               `gorm:"column:username;uniqueIndex;not null"`
	Zipcode      string               `gorm:"column:zipcode;not null"`
	AvatarURL    *string              `gorm:"column:avatar_url"`
	Tier         enums.MembershipTier `gorm:"column:tier;not null;default:COPPER"`
	StarsBalance int                  `gorm:"column:stars_balance;not null;default:0"`
	RatingAvg    decimal.Decimal      `gorm:"column:rating_avg;type:numeric(3,2);not null;default:0"`
	RatingCount  int                  `gorm:"column:rating_count;not null;default:0"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Tier == "" {
		p.Tier = enums.MembershipTierCopper
	}
	return nil
}
