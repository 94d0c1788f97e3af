package shop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// Repository exposes product and purchase persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	Category   *enums.ProductCategory
	ActiveOnly bool
}

func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter, page pagination.Params) ([]models.Product, error) {
	page = pagination.Normalize(page)
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}

	var products []models.Product
	err := q.
		Order("price_stars ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&products).Error
	return products, err
}

func (r *Repository) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *Repository) FindPurchaseByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *Repository) ListPurchasesByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Purchase, error) {
	page = pagination.Normalize(page)
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&purchases).Error
	return purchases, err
}

func (r *Repository) UpdatePurchase(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkConsumed flips an ACTIVE purchase to CONSUMED. The status predicate
// makes double-consumes lose cleanly.
func (r *Repository) MarkConsumed(ctx context.Context, id uuid.UUID, at time.Time, assignmentID *uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, enums.PurchaseStatusActive).
		Updates(map[string]any{
			"status":                   enums.PurchaseStatusConsumed,
			"consumed_at":              at,
			"applied_to_assignment_id": assignmentID,
		})
	return result.RowsAffected > 0, result.Error
}

// ExpireIfDue stamps EXPIRED on an ACTIVE purchase whose expiry has
// passed. Safe to call on any purchase any number of times.
func (r *Repository) ExpireIfDue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			id, enums.PurchaseStatusActive, now).
		Update("status", enums.PurchaseStatusExpired)
	return result.RowsAffected > 0, result.Error
}

// ExpireDueBatch is the sweep-job variant of ExpireIfDue.
func (r *Repository) ExpireDueBatch(ctx context.Context, now time.Time, limit int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id IN (?)", r.db.Model(&models.Purchase{}).
			Select("id").
			Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", enums.PurchaseStatusActive, now).
			Limit(limit)).
		Update("status", enums.PurchaseStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *Repository) FindAssignment(ctx context.Context, id uuid.UUID) (*models.GigAssignment, error) {
	var assignment models.GigAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}
