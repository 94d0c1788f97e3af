package gigs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/authz"
	"github.com/gigdesk/gigdesk-backend/internal/cascade"
	"github.com/gigdesk/gigdesk-backend/internal/memberships"
	"github.com/gigdesk/gigdesk-backend/internal/pricing"
	"github.com/gigdesk/gigdesk-backend/internal/users"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the gigs service.
type ServiceParams struct {
	DB       *db.Client
	Repo     *Repository
	Guard    *authz.Guard
	Members  *memberships.Repository
	Profiles *users.Repository
	Now      func() time.Time
}

// GigWithQuote pairs a gig with its derived pricing values at read time.
type GigWithQuote struct {
	Gig   models.Gig    `json:"gig"`
	Quote pricing.Quote `json:"quote"`
}

// CreateInput carries a new gig's fields and pricing configuration.
type CreateInput struct {
	CompanyID   uuid.UUID
	Title       string
	Description *string
	Type        enums.GigType
	LocationID  *uuid.UUID
	StartsAt    *time.Time
	EndsAt      *time.Time

	BasePriceCents   int
	BumpEverySeconds *int
	BumpCents        *int
	MaxBumps         *int
	MaxPriceCents    *int

	BaseStars             int
	StarsBumpEverySeconds *int
	StarsBumpAmount       *int
	MaxAgeBonusStars      *int

	RepostBonusPerRepost *int
	RequiredTier         *enums.MembershipTier
}

// UpdateInput carries optional partial updates to a gig.
type UpdateInput struct {
	Title       *string
	Description *string
	Type        *enums.GigType
	LocationID  *uuid.UUID
	StartsAt    *time.Time
	EndsAt      *time.Time

	BasePriceCents   *int
	BumpEverySeconds *int
	BumpCents        *int
	MaxBumps         *int
	MaxPriceCents    *int

	BaseStars             *int
	StarsBumpEverySeconds *int
	StarsBumpAmount       *int
	MaxAgeBonusStars      *int

	RepostBonusPerRepost *int
	RequiredTier         *enums.MembershipTier
}

// Service manages the gig lifecycle from draft through completion.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*GigWithQuote, error)
	Get(ctx context.Context, userID, gigID uuid.UUID) (*GigWithQuote, error)
	List(ctx context.Context, userID uuid.UUID, filter ListFilter, page pagination.Params) ([]GigWithQuote, error)
	Update(ctx context.Context, userID, gigID uuid.UUID, input UpdateInput) (*GigWithQuote, error)
	Delete(ctx context.Context, userID, gigID uuid.UUID) error
	UpdateStatus(ctx context.Context, userID, gigID uuid.UUID, status enums.GigStatus) (*GigWithQuote, error)
	Repost(ctx context.Context, userID, gigID uuid.UUID) (*GigWithQuote, error)

	Claim(ctx context.Context, userID, gigID uuid.UUID) (*models.GigAssignment, error)
	UpdateAssignmentStatus(ctx context.Context, userID, assignmentID uuid.UUID, status enums.AssignmentStatus, note *string) (*models.GigAssignment, error)
	Review(ctx context.Context, userID uuid.UUID, input ReviewInput) (*models.GigReview, error)

	ListAssignments(ctx context.Context, userID, gigID uuid.UUID, page pagination.Params) ([]models.GigAssignment, error)
	ListMyAssignments(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.GigAssignment, error)
	ListReviews(ctx context.Context, userID, gigID uuid.UUID, page pagination.Params) ([]models.GigReview, error)
}

type service struct {
	db       *db.Client
	repo     *Repository
	guard    *authz.Guard
	members  *memberships.Repository
	profiles *users.Repository
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gigs repo is required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization guard is required")
	}
	if params.Members == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "memberships repo is required")
	}
	if params.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		guard:    params.Guard,
		members:  params.Members,
		profiles: params.Profiles,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*GigWithQuote, error) {
	member, err := s.guard.RequireGigEditor(ctx, input.CompanyID, userID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gig title is required")
	}
	gigType := input.Type
	if gigType == "" {
		gigType = enums.GigTypeStandard
	}
	if !gigType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown gig type")
	}
	if input.RequiredTier != nil && !input.RequiredTier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown membership tier")
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ends_at cannot be before starts_at")
	}

	gig := &models.Gig{
		CompanyID:        input.CompanyID,
		CreatedByUserID:  member.UserID,
		Title:            title,
		Description:      input.Description,
		Type:             gigType,
		LocationID:       input.LocationID,
		StartsAt:         input.StartsAt,
		EndsAt:           input.EndsAt,
		BasePriceCents:   input.BasePriceCents,
		MaxBumps:         input.MaxBumps,
		MaxPriceCents:    input.MaxPriceCents,
		BaseStars:        input.BaseStars,
		MaxAgeBonusStars: input.MaxAgeBonusStars,
		RequiredTier:     input.RequiredTier,

		BumpEverySeconds:      valueOrDefault(input.BumpEverySeconds, 1800),
		BumpCents:             valueOrDefault(input.BumpCents, 100),
		StarsBumpEverySeconds: valueOrDefault(input.StarsBumpEverySeconds, 1800),
		StarsBumpAmount:       valueOrDefault(input.StarsBumpAmount, 1),
		RepostBonusPerRepost:  valueOrDefault(input.RepostBonusPerRepost, 1),
	}
	if err := validatePricingConfig(gig); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, gig); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gig")
	}
	return s.withQuote(*gig), nil
}

func (s *service) Get(ctx context.Context, userID, gigID uuid.UUID) (*GigWithQuote, error) {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireMember(ctx, gig.CompanyID, userID); err != nil {
		return nil, err
	}
	return s.withQuote(*gig), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, filter ListFilter, page pagination.Params) ([]GigWithQuote, error) {
	mine, err := s.members.ListUserMemberships(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}
	companyIDs := make([]uuid.UUID, 0, len(mine))
	for _, membership := range mine {
		companyIDs = append(companyIDs, membership.CompanyID)
	}
	if filter.CompanyID != nil {
		allowed := false
		for _, id := range companyIDs {
			if id == *filter.CompanyID {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this company")
		}
	}
	if len(companyIDs) == 0 {
		return []GigWithQuote{}, nil
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown gig status")
	}

	gigs, err := s.repo.List(ctx, companyIDs, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list gigs")
	}

	now := s.now()
	out := make([]GigWithQuote, 0, len(gigs))
	for _, gig := range gigs {
		out = append(out, GigWithQuote{Gig: gig, Quote: pricing.BuildQuote(gig, now)})
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, userID, gigID uuid.UUID, input UpdateInput) (*GigWithQuote, error) {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireGigEditor(ctx, gig.CompanyID, userID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "gig title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown gig type")
		}
		updates["type"] = *input.Type
	}
	if input.LocationID != nil {
		updates["location_id"] = *input.LocationID
	}
	if input.StartsAt != nil {
		updates["starts_at"] = *input.StartsAt
	}
	if input.EndsAt != nil {
		updates["ends_at"] = *input.EndsAt
	}
	if input.RequiredTier != nil {
		if !input.RequiredTier.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown membership tier")
		}
		updates["required_tier"] = *input.RequiredTier
	}

	// apply pricing changes to a copy first so the whole config can be
	// validated together
	next := *gig
	setInt := func(column string, target *int, value *int) {
		if value != nil {
			*target = *value
			updates[column] = *value
		}
	}
	setInt("base_price_cents", &next.BasePriceCents, input.BasePriceCents)
	setInt("bump_every_seconds", &next.BumpEverySeconds, input.BumpEverySeconds)
	setInt("bump_cents", &next.BumpCents, input.BumpCents)
	setInt("base_stars", &next.BaseStars, input.BaseStars)
	setInt("stars_bump_every_seconds", &next.StarsBumpEverySeconds, input.StarsBumpEverySeconds)
	setInt("stars_bump_amount", &next.StarsBumpAmount, input.StarsBumpAmount)
	setInt("repost_bonus_per_repost", &next.RepostBonusPerRepost, input.RepostBonusPerRepost)
	if input.MaxBumps != nil {
		next.MaxBumps = input.MaxBumps
		updates["max_bumps"] = *input.MaxBumps
	}
	if input.MaxPriceCents != nil {
		next.MaxPriceCents = input.MaxPriceCents
		updates["max_price_cents"] = *input.MaxPriceCents
	}
	if input.MaxAgeBonusStars != nil {
		next.MaxAgeBonusStars = input.MaxAgeBonusStars
		updates["max_age_bonus_stars"] = *input.MaxAgeBonusStars
	}
	if err := validatePricingConfig(&next); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, gigID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update gig")
		}
	}
	reloaded, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	return s.withQuote(*reloaded), nil
}

func (s *service) Delete(ctx context.Context, userID, gigID uuid.UUID) error {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return err
	}
	if _, err := s.guard.RequireGigEditor(ctx, gig.CompanyID, userID); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := cascade.Execute(ctx, tx, DeletionPlan(gigID))
		return err
	})
}

// UpdateStatus moves the gig itself between lifecycle states. Leaving the
// claimable set also drops every watchlist bookmark.
func (s *service) UpdateStatus(ctx context.Context, userID, gigID uuid.UUID, status enums.GigStatus) (*GigWithQuote, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown gig status")
	}
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireGigStatusChanger(ctx, gig.CompanyID, userID); err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.SetStatus(ctx, gigID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update gig status")
		}
		if !status.IsClaimable() {
			if err := repo.DeleteWatchlistByGig(ctx, gigID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge watchlist")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reloaded, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	return s.withQuote(*reloaded), nil
}

// Repost reopens an unassigned gig and bumps its repost counter, which
// feeds the repost star bonus.
func (s *service) Repost(ctx context.Context, userID, gigID uuid.UUID) (*GigWithQuote, error) {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireGigEditor(ctx, gig.CompanyID, userID); err != nil {
		return nil, err
	}

	switch gig.Status {
	case enums.GigStatusDraft, enums.GigStatusOpen, enums.GigStatusCancelled, enums.GigStatusCompleted:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "gig has an active assignment")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.IncrementRepostCount(ctx, gigID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment repost count")
		}
		if err := repo.SetStatus(ctx, gigID, enums.GigStatusOpen); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen gig")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reloaded, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	return s.withQuote(*reloaded), nil
}

func (s *service) ListAssignments(ctx context.Context, userID, gigID uuid.UUID, page pagination.Params) ([]models.GigAssignment, error) {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireMember(ctx, gig.CompanyID, userID); err != nil {
		return nil, err
	}
	assignments, err := s.repo.ListAssignmentsByGig(ctx, gigID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return assignments, nil
}

func (s *service) ListMyAssignments(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.GigAssignment, error) {
	assignments, err := s.repo.ListAssignmentsByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return assignments, nil
}

func (s *service) ListReviews(ctx context.Context, userID, gigID uuid.UUID, page pagination.Params) ([]models.GigReview, error) {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireMember(ctx, gig.CompanyID, userID); err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListReviewsByGig(ctx, gigID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return reviews, nil
}

func (s *service) loadGig(ctx context.Context, gigID uuid.UUID) (*models.Gig, error) {
	gig, err := s.repo.FindByID(ctx, gigID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gig not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gig")
	}
	return gig, nil
}

func (s *service) withQuote(gig models.Gig) *GigWithQuote {
	return &GigWithQuote{Gig: gig, Quote: pricing.BuildQuote(gig, s.now())}
}

func valueOrDefault(value *int, fallback int) int {
	if value != nil {
		return *value
	}
	return fallback
}

func validatePricingConfig(gig *models.Gig) error {
	if gig.BasePriceCents < 0 || gig.BumpCents < 0 || gig.BaseStars < 0 ||
		gig.StarsBumpAmount < 0 || gig.RepostBonusPerRepost < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pricing amounts cannot be negative")
	}
	if gig.BumpEverySeconds <= 0 || gig.StarsBumpEverySeconds <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "bump intervals must be positive")
	}
	for _, limit := range []*int{gig.MaxBumps, gig.MaxPriceCents, gig.MaxAgeBonusStars} {
		if limit != nil && *limit < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "pricing caps cannot be negative")
		}
	}
	return nil
}
