package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// Member links a user with a company and captures their role. Exactly one
// row may exist per (company, user) pair.
type Member struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID uuid.UUID         `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_members_company_user"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_members_company_user"`
	Role      enums.CompanyRole `gorm:"column:role;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
