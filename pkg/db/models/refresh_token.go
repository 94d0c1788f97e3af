package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken holds the SHA-256 hash of an opaque refresh token. The raw
// token is only ever seen by the client. RevokedAt plus ReplacedByTokenID
// form the rotation chain used to detect replay of a spent token.
type RefreshToken struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	TokenHash         string     `gorm:"column:token_hash;not null;uniqueIndex"`
	ExpiresAt         time.Time  `gorm:"column:expires_at;not null"`
	RevokedAt         *time.Time `gorm:"column:revoked_at"`
	ReplacedByTokenID *uuid.UUID `gorm:"column:replaced_by_token_id;type:uuid"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
