package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gigdesk/gigdesk-backend/api/responses"
	"github.com/gigdesk/gigdesk-backend/api/validators"
	"github.com/gigdesk/gigdesk-backend/internal/gigs"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/logger"
)

type createGigRequest struct {
	Title       string     `json:"title" validate:"required,min=3"`
	Description *string    `json:"description,omitempty"`
	Type        string     `json:"type" validate:"required"`
	LocationID  *uuid.UUID `json:"location_id,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`

	BasePriceCents   int  `json:"base_price_cents" validate:"gte=0"`
	BumpEverySeconds *int `json:"bump_every_seconds,omitempty"`
	BumpCents        *int `json:"bump_cents,omitempty"`
	MaxBumps         *int `json:"max_bumps,omitempty"`
	MaxPriceCents    *int `json:"max_price_cents,omitempty"`

	BaseStars             int  `json:"base_stars" validate:"gte=0"`
	StarsBumpEverySeconds *int `json:"stars_bump_every_seconds,omitempty"`
	StarsBumpAmount       *int `json:"stars_bump_amount,omitempty"`
	MaxAgeBonusStars      *int `json:"max_age_bonus_stars,omitempty"`

	RepostBonusPerRepost *int    `json:"repost_bonus_per_repost,omitempty"`
	RequiredTier         *string `json:"required_tier,omitempty"`
}

type updateGigRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3"`
	Description *string    `json:"description,omitempty"`
	Type        *string    `json:"type,omitempty"`
	LocationID  *uuid.UUID `json:"location_id,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`

	BasePriceCents   *int `json:"base_price_cents,omitempty"`
	BumpEverySeconds *int `json:"bump_every_seconds,omitempty"`
	BumpCents        *int `json:"bump_cents,omitempty"`
	MaxBumps         *int `json:"max_bumps,omitempty"`
	MaxPriceCents    *int `json:"max_price_cents,omitempty"`

	BaseStars             *int `json:"base_stars,omitempty"`
	StarsBumpEverySeconds *int `json:"stars_bump_every_seconds,omitempty"`
	StarsBumpAmount       *int `json:"stars_bump_amount,omitempty"`
	MaxAgeBonusStars      *int `json:"max_age_bonus_stars,omitempty"`

	RepostBonusPerRepost *int    `json:"repost_bonus_per_repost,omitempty"`
	RequiredTier         *string `json:"required_tier,omitempty"`
}

type gigStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func parseTier(raw *string) (*enums.MembershipTier, error) {
	if raw == nil {
		return nil, nil
	}
	tier := enums.MembershipTier(strings.ToUpper(strings.TrimSpace(*raw)))
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown membership tier")
	}
	return &tier, nil
}

// GigCreate posts a gig under a company.
func GigCreate(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gigs service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createGigRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gigType := enums.GigType(strings.ToUpper(strings.TrimSpace(payload.Type)))
		if !gigType.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown gig type"))
			return
		}

		tier, err := parseTier(payload.RequiredTier)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gig, err := svc.Create(ctx, uid, gigs.CreateInput{
			CompanyID:   companyID,
			Title:       payload.Title,
			Description: payload.Description,
			Type:        gigType,
			LocationID:  payload.LocationID,
			StartsAt:    payload.StartsAt,
			EndsAt:      payload.EndsAt,

			BasePriceCents:   payload.BasePriceCents,
			BumpEverySeconds: payload.BumpEverySeconds,
			BumpCents:        payload.BumpCents,
			MaxBumps:         payload.MaxBumps,
			MaxPriceCents:    payload.MaxPriceCents,

			BaseStars:             payload.BaseStars,
			StarsBumpEverySeconds: payload.StarsBumpEverySeconds,
			StarsBumpAmount:       payload.StarsBumpAmount,
			MaxAgeBonusStars:      payload.MaxAgeBonusStars,

			RepostBonusPerRepost: payload.RepostBonusPerRepost,
			RequiredTier:         tier,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, gig)
	}
}

// GigGet returns a gig with its live price and stars quote.
func GigGet(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gigs service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gigID, err := pathUUID(r, "gigId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gig, err := svc.Get(ctx, uid, gigID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, gig)
	}
}

// GigList lists gigs across the caller's companies, filterable by company
// and status.
func GigList(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gigs service unavailable"))
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

		var filter gigs.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("company_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id"))
				return
			}
			filter.CompanyID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.GigStatus(strings.ToUpper(raw))
			if !status.IsValid() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown gig status"))
				return
			}
			filter.Status = &status
		}

		results, err := svc.List(ctx, uid, filter, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// GigUpdate applies partial edits to a gig.
func GigUpdate(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gigs service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gigID, err := pathUUID(r, "gigId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateGigRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var gigType *enums.GigType
		if payload.Type != nil {
			parsed := enums.GigType(strings.ToUpper(strings.TrimSpace(*payload.Type)))
			if !parsed.IsValid() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown gig type"))
				return
			}
			gigType = &parsed
		}

		tier, err := parseTier(payload.RequiredTier)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gig, err := svc.Update(ctx, uid, gigID, gigs.UpdateInput{
			Title:       payload.Title,
			Description: payload.Description,
			Type:        gigType,
			LocationID:  payload.LocationID,
			StartsAt:    payload.StartsAt,
			EndsAt:      payload.EndsAt,

			BasePriceCents:   payload.BasePriceCents,
			BumpEverySeconds: payload.BumpEverySeconds,
			BumpCents:        payload.BumpCents,
			MaxBumps:         payload.MaxBumps,
			MaxPriceCents:    payload.MaxPriceCents,

			BaseStars:             payload.BaseStars,
			StarsBumpEverySeconds: payload.StarsBumpEverySeconds,
			StarsBumpAmount:       payload.StarsBumpAmount,
			MaxAgeBonusStars:      payload.MaxAgeBonusStars,

			RepostBonusPerRepost: payload.RepostBonusPerRepost,
			RequiredTier:         tier,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, gig)
	}
}

// GigDelete removes a gig and its assignment, review, ledger-link and
// watchlist records.
func GigDelete(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gigs service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gigID, err := pathUUID(r, "gigId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, uid, gigID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// GigUpdateStatus transitions a gig to a new lifecycle status.
func GigUpdateStatus(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gigs service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gigID, err := pathUUID(r, "gigId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload gigStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := enums.GigStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
		if !status.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown gig status"))
			return
		}

		gig, err := svc.UpdateStatus(ctx, uid, gigID, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, gig)
	}
}

// GigRepost reopens a gig and bumps its repost counter.
func GigRepost(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gigs service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gigID, err := pathUUID(r, "gigId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		gig, err := svc.Repost(ctx, uid, gigID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, gig)
	}
}
