package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// GigReview is the single verdict on a submitted assignment. The unique
// index on assignment_id makes the one-review rule a database guarantee.
type GigReview struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	AssignmentID     uuid.UUID            `gorm:"column:assignment_id;type:uuid;not null;uniqueIndex"`
	ReviewerUserID   uuid.UUID            `gorm:"column:reviewer_user_id;type:uuid;not null"`
	Decision         enums.ReviewDecision `gorm:"column:decision;not null"`
	Rating           *int                 `gorm:"column:rating"`
	Comment          *string              `gorm:"column:comment"`
	StarsAwarded     int                  `gorm:"column:stars_awarded;not null;default:0"`
	PayoutCentsOwed  int                  `gorm:"column:payout_cents_owed;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *GigReview) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
