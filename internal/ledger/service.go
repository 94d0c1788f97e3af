package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	DB   *db.Client
	Repo *Repository
}

// Service records and lists ledger entries. Writes always go through a
// transaction so the entry and the balance move together.
type Service interface {
	RecordStars(ctx context.Context, input StarsInput) (*models.StarsTransaction, error)
	RecordMoney(ctx context.Context, input MoneyInput) (*models.MoneyTransaction, error)
	ListStars(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.StarsTransaction, error)
	ListMoney(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.MoneyTransaction, error)
}

type service struct {
	db   *db.Client
	repo *Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger repo is required")
	}
	return &service{db: params.DB, repo: params.Repo}, nil
}

func (s *service) RecordStars(ctx context.Context, input StarsInput) (*models.StarsTransaction, error) {
	var entry *models.StarsTransaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		entry, applyErr = ApplyStars(ctx, tx, input)
		return applyErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) RecordMoney(ctx context.Context, input MoneyInput) (*models.MoneyTransaction, error) {
	var entry *models.MoneyTransaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		entry, applyErr = ApplyMoney(ctx, tx, input)
		return applyErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListStars(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.StarsTransaction, error) {
	entries, err := s.repo.ListStarsTransactions(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stars transactions")
	}
	return entries, nil
}

func (s *service) ListMoney(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.MoneyTransaction, error) {
	entries, err := s.repo.ListMoneyTransactions(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list money transactions")
	}
	return entries, nil
}
