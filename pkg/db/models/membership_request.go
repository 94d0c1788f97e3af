package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// MembershipRequest tracks one company join request. History is retained;
// only the latest request per (company, user) drives workflow decisions.
type MembershipRequest struct {
	ID               uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID        uuid.UUID                     `gorm:"column:company_id;type:uuid;not null;index"`
	UserID           uuid.UUID                     `gorm:"column:user_id;type:uuid;not null;index"`
	RequestedRole    enums.CompanyRole             `gorm:"column:requested_role;not null"`
	Note             *string                       `gorm:"column:note"`
	Status           enums.MembershipRequestStatus `gorm:"column:status;not null;default:PENDING"`
	ResolvedByUserID *uuid.UUID                    `gorm:"column:resolved_by_user_id;type:uuid"`
	ResolvedNote     *string                       `gorm:"column:resolved_note"`
	ResolvedAt       *time.Time                    `gorm:"column:resolved_at"`
	CreatedAt        time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *MembershipRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = enums.MembershipRequestPending
	}
	return nil
}
