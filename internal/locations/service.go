package locations

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the locations service.
type ServiceParams struct {
	DB         *db.Client
	Repo       *Repository
	TxRepoFunc func(tx *gorm.DB) *Repository
}

// Service manages reusable gig locations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Location, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Location, error)
	List(ctx context.Context, page pagination.Params) ([]models.Location, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput carries the fields of a new location.
type CreateInput struct {
	Name    string
	Address string
	City    string
	State   string
	Zipcode string
	Lat     *float64
	Lng     *float64
}

// UpdateInput carries optional partial updates.
type UpdateInput struct {
	Name    *string
	Address *string
	City    *string
	State   *string
	Zipcode *string
	Lat     *float64
	Lng     *float64
}

type service struct {
	db         *db.Client
	repo       *Repository
	txRepoFunc func(tx *gorm.DB) *Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "locations repo is required")
	}
	txRepoFunc := params.TxRepoFunc
	if txRepoFunc == nil {
		txRepoFunc = NewRepository
	}
	return &service{db: params.DB, repo: params.Repo, txRepoFunc: txRepoFunc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Location, error) {
	location := &models.Location{
		Name:    strings.TrimSpace(input.Name),
		Address: strings.TrimSpace(input.Address),
		City:    strings.TrimSpace(input.City),
		State:   strings.TrimSpace(input.State),
		Zipcode: strings.TrimSpace(input.Zipcode),
		Lat:     input.Lat,
		Lng:     input.Lng,
	}
	if location.Name == "" || location.Address == "" || location.City == "" ||
		location.State == "" || location.Zipcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, address, city, state and zipcode are required")
	}
	if err := s.repo.Create(ctx, location); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location")
	}
	return location, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	return location, nil
}

func (s *service) List(ctx context.Context, page pagination.Params) ([]models.Location, error) {
	locations, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	return locations, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Location, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	setTrimmed := func(column string, value *string) error {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, column+" cannot be empty")
		}
		updates[column] = trimmed
		return nil
	}
	for column, value := range map[string]*string{
		"name":    input.Name,
		"address": input.Address,
		"city":    input.City,
		"state":   input.State,
		"zipcode": input.Zipcode,
	} {
		if err := setTrimmed(column, value); err != nil {
			return nil, err
		}
	}
	if input.Lat != nil {
		updates["lat"] = *input.Lat
	}
	if input.Lng != nil {
		updates["lng"] = *input.Lng
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update location")
	}
	return s.Get(ctx, id)
}

// Delete removes the location after detaching it from any gigs that still
// reference it, both inside one transaction.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.txRepoFunc(tx)
		if err := repo.DetachGigs(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach gigs from location")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete location")
		}
		return nil
	})
}
