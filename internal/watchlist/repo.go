package watchlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// Repository exposes watchlist persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, entry *models.WatchlistEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) FindGig(ctx context.Context, gigID uuid.UUID) (*models.Gig, error) {
	var gig models.Gig
	if err := r.db.WithContext(ctx).First(&gig, "id = ?", gigID).Error; err != nil {
		return nil, err
	}
	return &gig, nil
}

// HasActiveAssignment reports whether anyone currently holds a live
// assignment on the gig.
func (r *Repository) HasActiveAssignment(ctx context.Context, gigID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GigAssignment{}).
		Where("gig_id = ? AND status NOT IN ?", gigID, []enums.AssignmentStatus{
			enums.AssignmentStatusDeclined,
			enums.AssignmentStatusCancelled,
		}).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the user's entry for the gig; missing rows are fine.
func (r *Repository) Delete(ctx context.Context, userID, gigID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND gig_id = ?", userID, gigID).
		Delete(&models.WatchlistEntry{}).Error
}

// DeleteByGig clears every entry pointing at the gig. Called when a gig
// stops being claimable.
func (r *Repository) DeleteByGig(ctx context.Context, gigID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("gig_id = ?", gigID).
		Delete(&models.WatchlistEntry{})
	return result.RowsAffected, result.Error
}

// DeleteStale removes entries whose gig has left the claimable statuses.
func (r *Repository) DeleteStale(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND gig_id IN (?)", userID,
			r.db.Model(&models.Gig{}).Select("id").Where("status NOT IN ?", enums.ClaimableGigStatuses)).
		Delete(&models.WatchlistEntry{})
	return result.RowsAffected, result.Error
}

// DeleteStaleBatch is DeleteStale across all users, for the sweep job.
func (r *Repository) DeleteStaleBatch(ctx context.Context, limit int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.WatchlistEntry{}).
			Select("watchlist_entries.id").
			Joins("JOIN gigs ON gigs.id = watchlist_entries.gig_id").
			Where("gigs.status NOT IN ?", enums.ClaimableGigStatuses).
			Limit(limit)).
		Delete(&models.WatchlistEntry{})
	return result.RowsAffected, result.Error
}

// ListByUser returns the user's entries with their gigs, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.WatchlistEntry, []models.Gig, error) {
	page = pagination.Normalize(page)

	var entries []models.WatchlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return entries, nil, nil
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.GigID)
	}
	var gigs []models.Gig
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&gigs).Error; err != nil {
		return nil, nil, err
	}
	return entries, gigs, nil
}
