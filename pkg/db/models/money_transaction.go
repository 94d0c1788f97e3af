package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// MoneyTransaction is the cents-denominated counterpart of
// StarsTransaction. Money entries are recorded without a running balance.
type MoneyTransaction struct {
	ID       uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID   uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Cents    int               `gorm:"column:cents;not null"`
	Reason   enums.MoneyReason `gorm:"column:reason;not null"`
	GigID    *uuid.UUID        `gorm:"column:gig_id;type:uuid"`
	ReviewID *uuid.UUID        `gorm:"column:review_id;type:uuid"`
	Note     *string           `gorm:"column:note"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (t *MoneyTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
