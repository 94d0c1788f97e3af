package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
)

// Repository exposes user and profile persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser persists a new user row.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindUserByID loads a user by primary key.
func (r *Repository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail loads a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePasswordHash replaces the stored credential.
func (r *Repository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash).Error
}

// CreateProfile persists a new profile row.
func (r *Repository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// FindProfileByUserID loads the profile owned by a user.
func (r *Repository) FindProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindProfileByUsername loads a profile by its public handle.
func (r *Repository) FindProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies a partial update to the profile row.
func (r *Repository) UpdateProfile(ctx context.Context, profileID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profileID).
		Updates(updates).Error
}

// DeleteProfile removes the profile row for a user. Returns the affected
// row count so callers can distinguish a no-op.
func (r *Repository) DeleteProfile(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Profile{})
	return res.RowsAffected, res.Error
}

// SetTier stores the membership tier for a user's profile.
func (r *Repository) SetTier(ctx context.Context, userID uuid.UUID, tier enums.MembershipTier) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("tier", tier).Error
}

// ApplyRating folds a new 1-5 rating into the profile's running average.
func (r *Repository) ApplyRating(ctx context.Context, userID uuid.UUID, rating int) error {
	profile, err := r.FindProfileByUserID(ctx, userID)
	if err != nil {
		return err
	}

	count := profile.RatingCount + 1
	total := profile.RatingAvg.Mul(decimal.NewFromInt(int64(profile.RatingCount))).
		Add(decimal.NewFromInt(int64(rating)))
	avg := total.DivRound(decimal.NewFromInt(int64(count)), 2)

	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]any{
			"rating_avg":   avg,
			"rating_count": count,
		}).Error
}
