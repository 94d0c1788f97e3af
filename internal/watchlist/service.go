package watchlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/authz"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the watchlist service.
type ServiceParams struct {
	Repo  *Repository
	Guard *authz.Guard
}

// Entry pairs a watchlist row with its gig for list responses.
type Entry struct {
	WatchedAt models.WatchlistEntry
	Gig       models.Gig
}

// Service manages per-user gig watchlists.
type Service interface {
	Add(ctx context.Context, userID, gigID uuid.UUID) (*models.WatchlistEntry, error)
	Remove(ctx context.Context, userID, gigID uuid.UUID) error
	ListMine(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]Entry, error)
}

type service struct {
	repo  *Repository
	guard *authz.Guard
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "watchlist repo is required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization guard is required")
	}
	return &service{repo: params.Repo, guard: params.Guard}, nil
}

// Add bookmarks a gig that is still claimable. Watching is limited to
// members of the gig's company. Re-adding an existing entry is a no-op
// rather than an error.
func (s *service) Add(ctx context.Context, userID, gigID uuid.UUID) (*models.WatchlistEntry, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	gig, err := s.repo.FindGig(ctx, gigID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gig not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gig")
	}
	if _, err := s.guard.RequireMember(ctx, gig.CompanyID, userID); err != nil {
		return nil, err
	}
	if !gig.Status.IsClaimable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "gig is no longer open for claims")
	}

	assigned, err := s.repo.HasActiveAssignment(ctx, gigID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check assignment")
	}
	if assigned {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "gig is already assigned")
	}

	entry := &models.WatchlistEntry{UserID: userID, GigID: gigID}
	if err := s.repo.Create(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "idx_watchlist_user_gig") {
			return entry, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add watchlist entry")
	}
	return entry, nil
}

// Remove is idempotent.
func (s *service) Remove(ctx context.Context, userID, gigID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.repo.Delete(ctx, userID, gigID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove watchlist entry")
	}
	return nil
}

// ListMine drops entries whose gigs have stopped being claimable before
// returning the rest, so stale bookmarks disappear on first read.
func (s *service) ListMine(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]Entry, error) {
	if _, err := s.repo.DeleteStale(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clean stale watchlist entries")
	}

	rows, gigs, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list watchlist")
	}

	gigByID := make(map[uuid.UUID]models.Gig, len(gigs))
	for _, gig := range gigs {
		gigByID[gig.ID] = gig
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		gig, ok := gigByID[row.GigID]
		if !ok {
			continue
		}
		entries = append(entries, Entry{WatchedAt: row, Gig: gig})
	}
	return entries, nil
}
