package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// StarsTransaction is an append-only ledger entry. Amount is positive for
// credits and negative for debits; rows are never updated or deleted
// outside of account erasure.
type StarsTransaction struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Amount     int               `gorm:"column:amount;not null"`
	Reason     enums.StarsReason `gorm:"column:reason;not null"`
	GigID      *uuid.UUID        `gorm:"column:gig_id;type:uuid"`
	ReviewID   *uuid.UUID        `gorm:"column:review_id;type:uuid"`
	PurchaseID *uuid.UUID        `gorm:"column:purchase_id;type:uuid"`
	Note       *string           `gorm:"column:note"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (t *StarsTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
