package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gigdesk/gigdesk-backend/api/responses"
	"github.com/gigdesk/gigdesk-backend/api/validators"
	"github.com/gigdesk/gigdesk-backend/internal/shop"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/logger"
)

type productRequest struct {
	Name            string  `json:"name" validate:"required,min=2"`
	Description     *string `json:"description,omitempty"`
	Category        string  `json:"category" validate:"required"`
	PriceStars      int     `json:"price_stars" validate:"gte=0"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	GrantsTier      *string `json:"grants_tier,omitempty"`
	BonusCents      *int    `json:"bonus_cents,omitempty"`
	Active          *bool   `json:"active,omitempty"`
}

type productUpdateRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Description     *string `json:"description,omitempty"`
	Category        *string `json:"category,omitempty"`
	PriceStars      *int    `json:"price_stars,omitempty" validate:"omitempty,gte=0"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	GrantsTier      *string `json:"grants_tier,omitempty"`
	BonusCents      *int    `json:"bonus_cents,omitempty"`
	Active          *bool   `json:"active,omitempty"`
}

type purchaseRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type consumeRequest struct {
	AssignmentID *uuid.UUID `json:"assignment_id,omitempty"`
}

func (p productRequest) toInput() (shop.ProductInput, error) {
	category := enums.ProductCategory(strings.ToUpper(strings.TrimSpace(p.Category)))
	if !category.IsValid() {
		return shop.ProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category")
	}
	tier, err := parseTier(p.GrantsTier)
	if err != nil {
		return shop.ProductInput{}, err
	}
	return shop.ProductInput{
		Name:            p.Name,
		Description:     p.Description,
		Category:        category,
		PriceStars:      p.PriceStars,
		DurationSeconds: p.DurationSeconds,
		GrantsTier:      tier,
		BonusCents:      p.BonusCents,
		Active:          p.Active,
	}, nil
}

func (p productUpdateRequest) toInput() (shop.UpdateProductInput, error) {
	var category *enums.ProductCategory
	if p.Category != nil {
		parsed := enums.ProductCategory(strings.ToUpper(strings.TrimSpace(*p.Category)))
		if !parsed.IsValid() {
			return shop.UpdateProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category")
		}
		category = &parsed
	}
	tier, err := parseTier(p.GrantsTier)
	if err != nil {
		return shop.UpdateProductInput{}, err
	}
	return shop.UpdateProductInput{
		Name:            p.Name,
		Description:     p.Description,
		Category:        category,
		PriceStars:      p.PriceStars,
		DurationSeconds: p.DurationSeconds,
		GrantsTier:      tier,
		BonusCents:      p.BonusCents,
		Active:          p.Active,
	}, nil
}

// ProductCreate adds a product to the stars shop catalog.
func ProductCreate(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.CreateProduct(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate patches a product's catalog fields. Absent fields are
// left as they are.
func ProductUpdate(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload productUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(ctx, productID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductList browses the catalog, filterable by category and active flag.
func ProductList(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var filter shop.ProductFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category := enums.ProductCategory(strings.ToUpper(raw))
			if !category.IsValid() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category"))
				return
			}
			filter.Category = &category
		}
		filter.ActiveOnly = strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("active")), "true")

		products, err := svc.ListProducts(ctx, filter, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// ProductGet returns one catalog product.
func ProductGet(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.GetProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// PurchaseCreate buys a product, debiting the caller's stars balance.
func PurchaseCreate(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload purchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchase, err := svc.Purchase(ctx, uid, payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, purchase)
	}
}

// PurchaseConsume redeems an active purchase, applying its effect.
func PurchaseConsume(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchaseID, err := pathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload consumeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchase, err := svc.Consume(ctx, uid, purchaseID, payload.AssignmentID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseExpire marks a due purchase expired. Expiring a purchase that is
// no longer active returns it unchanged.
func PurchaseExpire(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchaseID, err := pathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchase, err := svc.Expire(ctx, uid, purchaseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseGet returns one of the caller's purchases.
func PurchaseGet(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchaseID, err := pathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchase, err := svc.GetPurchase(ctx, uid, purchaseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseListMine lists the caller's purchases.
func PurchaseListMine(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchases, err := svc.ListMyPurchases(ctx, uid, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchases)
	}
}
