package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
)

// Repository exposes refresh and password-reset token persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *Repository) FindRefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.WithContext(ctx).First(&token, "token_hash = ?", hash).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeRefreshToken marks the token spent. The revoked_at predicate makes
// rotation single-use: only the first caller sees a row change.
func (r *Repository) RevokeRefreshToken(ctx context.Context, id uuid.UUID, at time.Time, replacedBy *uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]any{
			"revoked_at":           at,
			"replaced_by_token_id": replacedBy,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *Repository) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at).Error
}

// DeleteDeadRefreshTokens purges expired or long-revoked tokens. Used by
// the cleanup sweep.
func (r *Repository) DeleteDeadRefreshTokens(ctx context.Context, before time.Time, limit int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.RefreshToken{}).
			Select("id").
			Where("expires_at <= ? OR revoked_at <= ?", before, before).
			Limit(limit)).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

func (r *Repository) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *Repository) FindResetTokenByHash(ctx context.Context, hash string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	if err := r.db.WithContext(ctx).First(&token, "token_hash = ?", hash).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// ConsumeResetToken is the single-use stamp for password resets.
func (r *Repository) ConsumeResetToken(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	return result.RowsAffected > 0, result.Error
}

// DeleteResetTokensForUser removes the user's other outstanding reset
// tokens, optionally sparing one.
func (r *Repository) DeleteResetTokensForUser(ctx context.Context, userID uuid.UUID, except *uuid.UUID) error {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	return q.Delete(&models.PasswordResetToken{}).Error
}

func (r *Repository) DeleteDeadResetTokens(ctx context.Context, before time.Time, limit int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.PasswordResetToken{}).
			Select("id").
			Where("expires_at <= ? OR used_at <= ?", before, before).
			Limit(limit)).
		Delete(&models.PasswordResetToken{})
	return result.RowsAffected, result.Error
}
