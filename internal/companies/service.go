package companies

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/authz"
	"github.com/gigdesk/gigdesk-backend/internal/cascade"
	"github.com/gigdesk/gigdesk-backend/internal/memberships"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the companies service.
type ServiceParams struct {
	DB            *db.Client
	Repo          *Repository
	Guard         *authz.Guard
	TxRepoFunc    func(tx *gorm.DB) *Repository
	TxMembersFunc func(tx *gorm.DB) *memberships.Repository
}

// Service exposes company lifecycle operations.
type Service interface {
	Create(ctx context.Context, creatorID uuid.UUID, input CreateInput) (*models.Company, error)
	Get(ctx context.Context, callerID, companyID uuid.UUID) (*models.Company, error)
	Update(ctx context.Context, callerID, companyID uuid.UUID, input UpdateInput) (*models.Company, error)
	Search(ctx context.Context, query string, page pagination.Params) ([]models.Company, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Company, error)
	Delete(ctx context.Context, callerID, companyID uuid.UUID) error
}

// CreateInput carries the fields for a new company.
type CreateInput struct {
	Name    string
	LogoURL *string
}

// UpdateInput carries the optional fields an owner may change.
type UpdateInput struct {
	Name    *string
	LogoURL *string
}

type service struct {
	db            *db.Client
	repo          *Repository
	guard         *authz.Guard
	txRepoFunc    func(tx *gorm.DB) *Repository
	txMembersFunc func(tx *gorm.DB) *memberships.Repository
}

// NewService builds a companies service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "companies repo is required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization guard is required")
	}
	txRepoFunc := params.TxRepoFunc
	if txRepoFunc == nil {
		txRepoFunc = NewRepository
	}
	txMembersFunc := params.TxMembersFunc
	if txMembersFunc == nil {
		txMembersFunc = memberships.NewRepository
	}
	return &service{
		db:            params.DB,
		repo:          params.Repo,
		guard:         params.Guard,
		txRepoFunc:    txRepoFunc,
		txMembersFunc: txMembersFunc,
	}, nil
}

// Create registers the company and makes the creator its first OWNER in
// the same transaction.
func (s *service) Create(ctx context.Context, creatorID uuid.UUID, input CreateInput) (*models.Company, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name is required")
	}

	company := &models.Company{Name: name, LogoURL: input.LogoURL}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.txRepoFunc(tx).Create(ctx, company); err != nil {
			if db.IsUniqueViolation(err, "name") {
				return pkgerrors.New(pkgerrors.CodeConflict, "company name already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create company")
		}
		owner := &models.Member{
			CompanyID: company.ID,
			UserID:    creatorID,
			Role:      enums.CompanyRoleOwner,
		}
		if err := s.txMembersFunc(tx).CreateMember(ctx, owner); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create founding owner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// Get returns the full company record. Members only; outsiders get the
// public directory instead.
func (s *service) Get(ctx context.Context, callerID, companyID uuid.UUID) (*models.Company, error) {
	if _, err := s.guard.RequireMember(ctx, companyID, callerID); err != nil {
		return nil, err
	}
	return s.load(ctx, companyID)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	return company, nil
}

func (s *service) Update(ctx context.Context, callerID, companyID uuid.UUID, input UpdateInput) (*models.Company, error) {
	if _, err := s.guard.RequireOwner(ctx, companyID, callerID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name cannot be empty")
		}
		updates["name"] = name
	}
	if input.LogoURL != nil {
		updates["logo_url"] = *input.LogoURL
	}
	if len(updates) == 0 {
		return s.load(ctx, companyID)
	}

	if err := s.repo.Update(ctx, companyID, updates); err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "company name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update company")
	}
	return s.load(ctx, companyID)
}

func (s *service) Search(ctx context.Context, query string, page pagination.Params) ([]models.Company, error) {
	companies, err := s.repo.Search(ctx, query, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search companies")
	}
	return companies, nil
}

// ListMine returns every company the caller is a member of.
func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Company, error) {
	companies, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list own companies")
	}
	return companies, nil
}

// Delete erases the company and all of its gigs, assignments, reviews and
// gig-linked ledger rows in one transaction. Owner-only.
func (s *service) Delete(ctx context.Context, callerID, companyID uuid.UUID) error {
	if _, err := s.guard.RequireOwner(ctx, companyID, callerID); err != nil {
		return err
	}
	if _, err := s.load(ctx, companyID); err != nil {
		return err
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := cascade.Execute(ctx, tx, DeletionPlan(companyID))
		return err
	})
}
