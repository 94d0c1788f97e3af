package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// Gig stores the pricing configuration only. Current price and star totals
// are derived at read time and never persisted.
type Gig struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID       uuid.UUID       `gorm:"column:company_id;type:uuid;not null;index"`
	CreatedByUserID uuid.UUID       `gorm:"column:created_by_user_id;type:uuid;not null"`
	Title           string          `gorm:"column:title;not null"`
	Description     *string         `gorm:"column:description"`
	Type            enums.GigType   `gorm:"column:type;not null;default:STANDARD"`
	LocationID      *uuid.UUID      `gorm:"column:location_id;type:uuid"`
	StartsAt        *time.Time      `gorm:"column:starts_at"`
	EndsAt          *time.Time      `gorm:"column:ends_at"`
	Status          enums.GigStatus `gorm:"column:status;not null;default:DRAFT;index"`

	BasePriceCents   int  `gorm:"column:base_price_cents;not null;default:0"`
	BumpEverySeconds int  `gorm:"column:bump_every_seconds;not null;default:1800"`
	BumpCents        int  `gorm:"column:bump_cents;not null;default:100"`
	MaxBumps         *int `gorm:"column:max_bumps"`
	MaxPriceCents    *int `gorm:"column:max_price_cents"`

	BaseStars             int  `gorm:"column:base_stars;not null;default:0"`
	StarsBumpEverySeconds int  `gorm:"column:stars_bump_every_seconds;not null;default:1800"`
	StarsBumpAmount       int  `gorm:"column:stars_bump_amount;not null;default:1"`
	MaxAgeBonusStars      *int `gorm:"column:max_age_bonus_stars"`

	RepostBonusPerRepost int `gorm:"column:repost_bonus_per_repost;not null;default:1"`
	RepostCount          int `gorm:"column:repost_count;not null;default:0"`

	RequiredTier *enums.MembershipTier `gorm:"column:required_tier"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (g *Gig) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Type == "" {
		g.Type = enums.GigTypeStandard
	}
	if g.Status == "" {
		g.Status = enums.GigStatusDraft
	}
	return nil
}
