package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// Repository exposes the append-only ledger tables and the balance column.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateStarsTransaction(ctx context.Context, entry *models.StarsTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) CreateMoneyTransaction(ctx context.Context, entry *models.MoneyTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// AdjustStarsBalance applies the delta atomically, refusing any change that
// would take the balance below zero. Returns the number of rows touched: 0
// means either no such profile or not enough stars.
func (r *Repository) AdjustStarsBalance(ctx context.Context, userID uuid.UUID, delta int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ? AND stars_balance + ? >= 0", userID, delta).
		Update("stars_balance", gorm.Expr("stars_balance + ?", delta))
	return result.RowsAffected, result.Error
}

// ProfileExists reports whether the user has a profile row.
func (r *Repository) ProfileExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListStarsTransactions(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.StarsTransaction, error) {
	page = pagination.Normalize(page)
	var entries []models.StarsTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&entries).Error
	return entries, err
}

func (r *Repository) ListMoneyTransactions(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.MoneyTransaction, error) {
	page = pagination.Normalize(page)
	var entries []models.MoneyTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&entries).Error
	return entries, err
}
