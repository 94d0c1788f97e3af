package shop

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/ledger"
	"github.com/gigdesk/gigdesk-backend/internal/users"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the shop service.
type ServiceParams struct {
	DB   *db.Client
	Repo *Repository
	Now  func() time.Time
}

// ProductInput carries the fields of a catalog product.
type ProductInput struct {
	Name            string
	Description     *string
	Category        enums.ProductCategory
	PriceStars      int
	DurationSeconds *int
	GrantsTier      *enums.MembershipTier
	BonusCents      *int
	Active          *bool
}

// UpdateProductInput carries a partial product update. Nil fields are
// left untouched, so zero values like a free price stay expressible.
type UpdateProductInput struct {
	Name            *string
	Description     *string
	Category        *enums.ProductCategory
	PriceStars      *int
	DurationSeconds *int
	GrantsTier      *enums.MembershipTier
	BonusCents      *int
	Active          *bool
}

// Service is the stars shop: catalog products and the purchase lifecycle.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter, page pagination.Params) ([]models.Product, error)

	Purchase(ctx context.Context, userID, productID uuid.UUID) (*models.Purchase, error)
	Consume(ctx context.Context, userID, purchaseID uuid.UUID, assignmentID *uuid.UUID) (*models.Purchase, error)
	Expire(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error)
	GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error)
	ListMyPurchases(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Purchase, error)
}

type service struct {
	db   *db.Client
	repo *Repository
	now  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop repo is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{db: params.DB, repo: params.Repo, now: now}, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		Category:        input.Category,
		PriceStars:      input.PriceStars,
		DurationSeconds: input.DurationSeconds,
		GrantsTier:      input.GrantsTier,
		BonusCents:      input.BonusCents,
		Active:          true,
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	next := *product
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		next.Name = name
		updates["name"] = name
	}
	if input.Description != nil {
		next.Description = input.Description
		updates["description"] = *input.Description
	}
	if input.Category != nil {
		next.Category = *input.Category
		updates["category"] = *input.Category
	}
	if input.PriceStars != nil {
		next.PriceStars = *input.PriceStars
		updates["price_stars"] = *input.PriceStars
	}
	if input.DurationSeconds != nil {
		next.DurationSeconds = input.DurationSeconds
		updates["duration_seconds"] = *input.DurationSeconds
	}
	if input.GrantsTier != nil {
		next.GrantsTier = input.GrantsTier
		updates["grants_tier"] = *input.GrantsTier
	}
	if input.BonusCents != nil {
		next.BonusCents = input.BonusCents
		updates["bonus_cents"] = *input.BonusCents
	}
	if input.Active != nil {
		next.Active = *input.Active
		updates["active"] = *input.Active
	}
	if err := validateProduct(&next); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.UpdateProduct(ctx, productID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter, page pagination.Params) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

// Purchase spends stars on a product: the debit, the balance move and the
// purchase row commit together or not at all.
func (s *service) Purchase(ctx context.Context, userID, productID uuid.UUID) (*models.Purchase, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}

	purchase := &models.Purchase{
		UserID:     userID,
		ProductID:  product.ID,
		PriceStars: product.PriceStars,
	}
	if product.DurationSeconds != nil && *product.DurationSeconds > 0 {
		expires := s.now().Add(time.Duration(*product.DurationSeconds) * time.Second)
		purchase.ExpiresAt = &expires
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).CreatePurchase(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}
		if product.PriceStars == 0 {
			return nil
		}
		_, err := ledger.ApplyStars(ctx, tx, ledger.StarsInput{
			UserID:     userID,
			Amount:     -product.PriceStars,
			Reason:     enums.StarsReasonSpentOnProduct,
			PurchaseID: &purchase.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// Consume redeems an ACTIVE, unexpired purchase. Tier-upgrade products set
// the profile tier in the same transaction; pay-bonus products bind the
// assignment they were applied to.
func (s *service) Consume(ctx context.Context, userID, purchaseID uuid.UUID, assignmentID *uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.loadOwnedPurchase(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	product, err := s.GetProduct(ctx, purchase.ProductID)
	if err != nil {
		return nil, err
	}

	if assignmentID != nil {
		assignment, err := s.repo.FindAssignment(ctx, *assignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}
		if assignment.UserID != userID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another user")
		}
	}

	now := s.now()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		if expired, err := repo.ExpireIfDue(ctx, purchaseID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire purchase")
		} else if expired {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase has expired")
		}

		consumed, err := repo.MarkConsumed(ctx, purchaseID, now, assignmentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume purchase")
		}
		if !consumed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase is not active")
		}

		if product.Category == enums.ProductCategoryMembershipUpgrade && product.GrantsTier != nil {
			if err := users.NewRepository(tx).SetTier(ctx, userID, *product.GrantsTier); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant tier")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindPurchaseByID(ctx, purchaseID)
}

// Expire is idempotent: a non-ACTIVE or not-yet-due purchase comes back
// unchanged.
func (s *service) Expire(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error) {
	if _, err := s.loadOwnedPurchase(ctx, userID, purchaseID); err != nil {
		return nil, err
	}
	if _, err := s.repo.ExpireIfDue(ctx, purchaseID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire purchase")
	}
	return s.repo.FindPurchaseByID(ctx, purchaseID)
}

func (s *service) GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.loadOwnedPurchase(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	// lazy expiry on read keeps status truthful without a writer
	if expired, err := s.repo.ExpireIfDue(ctx, purchaseID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire purchase")
	} else if expired {
		return s.repo.FindPurchaseByID(ctx, purchaseID)
	}
	return purchase, nil
}

func (s *service) ListMyPurchases(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Purchase, error) {
	purchases, err := s.repo.ListPurchasesByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}

	// stamp overdue rows before returning them
	now := s.now()
	for i := range purchases {
		purchase := &purchases[i]
		if purchase.Status != enums.PurchaseStatusActive || purchase.ExpiresAt == nil || purchase.ExpiresAt.After(now) {
			continue
		}
		if _, err := s.repo.ExpireIfDue(ctx, purchase.ID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire purchase")
		}
		purchase.Status = enums.PurchaseStatusExpired
	}
	return purchases, nil
}

func (s *service) loadOwnedPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	purchase, err := s.repo.FindPurchaseByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if purchase.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	return purchase, nil
}

func validateProduct(product *models.Product) error {
	if product.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !product.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown product category")
	}
	if product.PriceStars < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if product.DurationSeconds != nil && *product.DurationSeconds <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
	}
	switch product.Category {
	case enums.ProductCategoryMembershipUpgrade:
		if product.GrantsTier == nil || !product.GrantsTier.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "membership upgrade products must grant a tier")
		}
	case enums.ProductCategoryPayBonus:
		if product.BonusCents == nil || *product.BonusCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "pay bonus products must carry a positive bonus")
		}
	}
	return nil
}
