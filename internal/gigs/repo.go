package gigs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// Repository exposes gig, assignment and review persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, gig *models.Gig) error {
	return r.db.WithContext(ctx).Create(gig).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	var gig models.Gig
	if err := r.db.WithContext(ctx).First(&gig, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &gig, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Gig{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListFilter narrows List to a company and/or status.
type ListFilter struct {
	CompanyID *uuid.UUID
	Status    *enums.GigStatus
}

// List returns gigs visible to a member of the given companies.
func (r *Repository) List(ctx context.Context, companyIDs []uuid.UUID, filter ListFilter, page pagination.Params) ([]models.Gig, error) {
	page = pagination.Normalize(page)
	q := r.db.WithContext(ctx).Model(&models.Gig{}).Where("company_id IN ?", companyIDs)
	if filter.CompanyID != nil {
		q = q.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}

	var gigs []models.Gig
	err := q.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&gigs).Error
	return gigs, err
}

// TransitionStatus is a compare-and-swap on the gig status. It returns
// false when the gig was not in the expected status, which is how the
// loser of a claim race finds out.
func (r *Repository) TransitionStatus(ctx context.Context, gigID uuid.UUID, from, to enums.GigStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Gig{}).
		Where("id = ? AND status = ?", gigID, from).
		Update("status", to)
	return result.RowsAffected > 0, result.Error
}

func (r *Repository) SetStatus(ctx context.Context, gigID uuid.UUID, status enums.GigStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Gig{}).
		Where("id = ?", gigID).
		Update("status", status).Error
}

func (r *Repository) IncrementRepostCount(ctx context.Context, gigID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Gig{}).
		Where("id = ?", gigID).
		Update("repost_count", gorm.Expr("repost_count + 1")).Error
}

func (r *Repository) CreateAssignment(ctx context.Context, assignment *models.GigAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *Repository) FindAssignmentByID(ctx context.Context, id uuid.UUID) (*models.GigAssignment, error) {
	var assignment models.GigAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// HasLiveAssignment reports whether any non-terminal assignment exists for
// the gig. Declined and cancelled assignments free the gig up again.
func (r *Repository) HasLiveAssignment(ctx context.Context, gigID uuid.UUID) (bool, error) {
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

func (r *Repository) ListAssignmentsByGig(ctx context.Context, gigID uuid.UUID, page pagination.Params) ([]models.GigAssignment, error) {
	page = pagination.Normalize(page)
	var assignments []models.GigAssignment
	err := r.db.WithContext(ctx).
		Where("gig_id = ?", gigID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&assignments).Error
	return assignments, err
}

func (r *Repository) ListAssignmentsByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.GigAssignment, error) {
	page = pagination.Normalize(page)
	var assignments []models.GigAssignment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&assignments).Error
	return assignments, err
}

// UpdateAssignment applies a status change plus its timestamp stamp.
func (r *Repository) UpdateAssignment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.GigAssignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *Repository) CreateReview(ctx context.Context, review *models.GigReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) FindReviewByAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.GigReview, error) {
	var review models.GigReview
	if err := r.db.WithContext(ctx).First(&review, "assignment_id = ?", assignmentID).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListReviewsByGig joins through assignments since reviews hang off them.
func (r *Repository) ListReviewsByGig(ctx context.Context, gigID uuid.UUID, page pagination.Params) ([]models.GigReview, error) {
	page = pagination.Normalize(page)
	var reviews []models.GigReview
	err := r.db.WithContext(ctx).
		Where("assignment_id IN (?)", r.db.Model(&models.GigAssignment{}).Select("id").Where("gig_id = ?", gigID)).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&reviews).Error
	return reviews, err
}

// DeleteWatchlistByGig purges bookmarks once a gig stops being claimable.
func (r *Repository) DeleteWatchlistByGig(ctx context.Context, gigID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("gig_id = ?", gigID).
		Delete(&models.WatchlistEntry{}).Error
}
