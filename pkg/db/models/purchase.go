package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// Purchase records a stars spend against a product. PriceStars is the
// price at purchase time; ExpiresAt is set when the product has a
// duration.
type Purchase struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID  uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	PriceStars int                  `gorm:"column:price_stars;not null"`
	Status     enums.PurchaseStatus `gorm:"column:status;not null;default:ACTIVE"`
	ExpiresAt  *time.Time           `gorm:"column:expires_at"`
	ConsumedAt *time.Time           `gorm:"column:consumed_at"`

	// set on consume for PAY_BONUS products applied to an assignment
	AppliedToAssignmentID *uuid.UUID `gorm:"column:applied_to_assignment_id;type:uuid"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = enums.PurchaseStatusActive
	}
	return nil
}
