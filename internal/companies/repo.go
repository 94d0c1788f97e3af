package companies

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// Repository exposes company persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new company row.
func (r *Repository) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// FindByID loads a company by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// Update applies a partial update to the company row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListForUser returns the companies the user belongs to, oldest
// membership first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.WithContext(ctx).
		Joins("JOIN members ON members.company_id = companies.id").
		Where("members.user_id = ?", userID).
		Order("members.created_at ASC").
		Find(&companies).Error
	return companies, err
}

// Search lists companies whose name contains the query, newest first.
func (r *Repository) Search(ctx context.Context, query string, page pagination.Params) ([]models.Company, error) {
	page = pagination.Normalize(page)
	q := r.db.WithContext(ctx).Model(&models.Company{})
	if trimmed := strings.TrimSpace(query); trimmed != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(trimmed)+"%")
	}

	var companies []models.Company
	err := q.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&companies).Error
	return companies, err
}
