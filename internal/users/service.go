package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/cascade"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

// SoleOwnerChecker reports companies that would be orphaned if the user left.
type SoleOwnerChecker interface {
	CompaniesSolelyOwnedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// ServiceParams groups dependencies for the users service. TxOwnershipFunc
// binds the ownership check to the erasure transaction so no owner can be
// added between the check and the delete.
type ServiceParams struct {
	DB              *db.Client
	Repo            *Repository
	TxOwnershipFunc func(tx *gorm.DB) SoleOwnerChecker
	TxRepoFunc      func(tx *gorm.DB) *Repository
}

// Service exposes profile reads, updates and account erasure.
type Service interface {
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.Profile, error)
	DeleteProfile(ctx context.Context, userID uuid.UUID) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// UpdateProfileInput carries the optional profile fields a user may change.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Username  *string
	Zipcode   *string
	AvatarURL *string
}

type service struct {
	db              *db.Client
	repo            *Repository
	txOwnershipFunc func(tx *gorm.DB) SoleOwnerChecker
	txRepoFunc      func(tx *gorm.DB) *Repository
}

// NewService builds a users service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	if params.TxOwnershipFunc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ownership checker is required")
	}
	txRepoFunc := params.TxRepoFunc
	if txRepoFunc == nil {
		txRepoFunc = NewRepository
	}
	return &service{
		db:              params.DB,
		repo:            params.Repo,
		txOwnershipFunc: params.TxOwnershipFunc,
		txRepoFunc:      txRepoFunc,
	}, nil
}

func (s *service) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

func (s *service) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	profile, err := s.repo.FindProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Username != nil {
		updates["username"] = *input.Username
	}
	if input.Zipcode != nil {
		updates["zipcode"] = *input.Zipcode
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}
	if len(updates) == 0 {
		return profile, nil
	}

	if err := s.repo.UpdateProfile(ctx, profile.ID, updates); err != nil {
		if db.IsUniqueViolation(err, "username") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.GetProfileByUserID(ctx, userID)
}

// DeleteProfile drops only the caller's public profile; the account and
// its history stay.
func (s *service) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	affected, err := s.repo.DeleteProfile(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete profile")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return nil
}

// DeleteAccount erases the user and everything they own in one
// transaction. A user who is the last OWNER of any company must hand the
// company off or delete it first.
func (s *service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.txRepoFunc(tx).FindUserByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		orphaned, err := s.txOwnershipFunc(tx).CompaniesSolelyOwnedBy(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check company ownership")
		}
		if len(orphaned) > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user is the sole owner of a company").
				WithDetails(map[string]any{"company_ids": orphaned})
		}

		_, err = cascade.Execute(ctx, tx, ErasurePlan(userID))
		return err
	})
}
