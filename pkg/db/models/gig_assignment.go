package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// GigAssignment records a worker's claim on a gig and stamps each
// lifecycle transition as it happens.
type GigAssignment struct {
	ID     uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	GigID  uuid.UUID              `gorm:"column:gig_id;type:uuid;not null;index"`
	UserID uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Status enums.AssignmentStatus `gorm:"column:status;not null;default:CLAIMED"`
	Note   *string                `gorm:"column:note"`

	ClaimedAt   time.Time  `gorm:"column:claimed_at;not null"`
	AcceptedAt  *time.Time `gorm:"column:accepted_at"`
	DeclinedAt  *time.Time `gorm:"column:declined_at"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	SubmittedAt *time.Time `gorm:"column:submitted_at"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *GigAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = enums.AssignmentStatusClaimed
	}
	if a.ClaimedAt.IsZero() {
		a.ClaimedAt = time.Now().UTC()
	}
	return nil
}
