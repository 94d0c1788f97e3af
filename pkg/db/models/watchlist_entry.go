package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WatchlistEntry bookmarks a gig for a user. One entry per user/gig pair.
type WatchlistEntry struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_watchlist_user_gig"`
	GigID  uuid.UUID `gorm:"column:gig_id;type:uuid;not null;uniqueIndex:idx_watchlist_user_gig"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (w *WatchlistEntry) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
