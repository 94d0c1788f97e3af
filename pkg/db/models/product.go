package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// Product is a shop item priced in stars. MEMBERSHIP_UPGRADE products
// carry the tier they grant; PAY_BONUS products carry a cents value.
type Product struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name            string                `gorm:"column:name;not null"`
	Description     *string               `gorm:"column:description"`
	Category        enums.ProductCategory `gorm:"column:category;not null"`
	PriceStars      int                   `gorm:"column:price_stars;not null"`
	DurationSeconds *int                  `gorm:"column:duration_seconds"`
	GrantsTier      *enums.MembershipTier `gorm:"column:grants_tier"`
	BonusCents      *int                  `gorm:"column:bonus_cents"`
	Active          bool                  `gorm:"column:active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
