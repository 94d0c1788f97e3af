package gigs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/ledger"
	"github.com/gigdesk/gigdesk-backend/internal/pricing"
	"github.com/gigdesk/gigdesk-backend/internal/users"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

// ReviewInput carries the reviewer's verdict on a submitted assignment.
type ReviewInput struct {
	AssignmentID uuid.UUID
	Decision     enums.ReviewDecision
	Rating       *int
	Comment      *string
}

// assignment status → timestamp column stamped on that transition
var assignmentStamps = map[enums.AssignmentStatus]string{
	enums.AssignmentStatusAccepted:  "accepted_at",
	enums.AssignmentStatusDeclined:  "declined_at",
	enums.AssignmentStatusStarted:   "started_at",
	enums.AssignmentStatusSubmitted: "submitted_at",
	enums.AssignmentStatusReviewed:  "reviewed_at",
	enums.AssignmentStatusCompleted: "completed_at",
	enums.AssignmentStatusCancelled: "cancelled_at",
}

// Claim races the gig from OPEN to CLAIMED with a conditional update, so
// exactly one of any number of concurrent claimants wins.
func (s *service) Claim(ctx context.Context, userID, gigID uuid.UUID) (*models.GigAssignment, error) {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireMember(ctx, gig.CompanyID, userID); err != nil {
		return nil, err
	}

	if gig.RequiredTier != nil {
		profile, err := s.profiles.FindProfileByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
		}
		if !profile.Tier.AtLeast(*gig.RequiredTier) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "membership tier too low for this gig").
				WithDetails(map[string]string{"required_tier": gig.RequiredTier.String()})
		}
	}

	assignment := &models.GigAssignment{GigID: gigID, UserID: userID}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		won, err := repo.TransitionStatus(ctx, gigID, enums.GigStatusOpen, enums.GigStatusClaimed)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim gig")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "gig is not open")
		}

		taken, err := repo.HasLiveAssignment(ctx, gigID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check assignment")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "gig is already assigned")
		}

		if err := repo.CreateAssignment(ctx, assignment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}
		if err := repo.DeleteWatchlistByGig(ctx, gigID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge watchlist")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// UpdateAssignmentStatus moves the assignment through its lifecycle. The
// assignee or a company admin may do it; each transition stamps its
// timestamp, and COMPLETED also completes the gig.
func (s *service) UpdateAssignmentStatus(ctx context.Context, userID, assignmentID uuid.UUID, status enums.AssignmentStatus, note *string) (*models.GigAssignment, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown assignment status")
	}
	if status == enums.AssignmentStatusClaimed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignments cannot return to claimed")
	}

	assignment, gig, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.UserID != userID {
		if _, err := s.guard.RequireCompanyAdmin(ctx, gig.CompanyID, userID); err != nil {
			return nil, err
		}
	}
	if assignment.Status == enums.AssignmentStatusCompleted || assignment.Status == enums.AssignmentStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is already closed")
	}

	updates := map[string]any{
		"status":                 status,
		assignmentStamps[status]: s.now(),
	}
	if note != nil {
		updates["note"] = *note
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.UpdateAssignment(ctx, assignmentID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment")
		}
		if status == enums.AssignmentStatusCompleted {
			if err := repo.SetStatus(ctx, gig.ID, enums.GigStatusCompleted); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete gig")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindAssignmentByID(ctx, assignmentID)
}

// Review records the single verdict on an assignment. Approval freezes the
// gig's derived totals onto the review row, credits the contractor's stars,
// records the payout and folds the rating into the profile aggregate, all
// in one transaction.
func (s *service) Review(ctx context.Context, userID uuid.UUID, input ReviewInput) (*models.GigReview, error) {
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown review decision")
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	assignment, gig, err := s.loadAssignment(ctx, input.AssignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireCompanyAdmin(ctx, gig.CompanyID, userID); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindReviewByAssignment(ctx, input.AssignmentID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is already reviewed")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check review")
	}

	quote := pricing.BuildQuote(*gig, s.now())
	review := &models.GigReview{
		AssignmentID:    input.AssignmentID,
		ReviewerUserID:  userID,
		Decision:        input.Decision,
		Rating:          input.Rating,
		Comment:         input.Comment,
		StarsAwarded:    quote.TotalStarsReward,
		PayoutCentsOwed: quote.CurrentPriceCents,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		if err := repo.CreateReview(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "assignment_id") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is already reviewed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}

		now := s.now()
		updates := map[string]any{"reviewed_at": now}
		if input.Decision == enums.ReviewDecisionApproved {
			updates["status"] = enums.AssignmentStatusCompleted
			updates["completed_at"] = now
		} else {
			updates["status"] = enums.AssignmentStatusReviewed
		}
		if err := repo.UpdateAssignment(ctx, input.AssignmentID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment")
		}

		if input.Decision != enums.ReviewDecisionApproved {
			return nil
		}

		if err := repo.SetStatus(ctx, gig.ID, enums.GigStatusCompleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete gig")
		}
		if review.StarsAwarded > 0 {
			if _, err := ledger.ApplyStars(ctx, tx, ledger.StarsInput{
				UserID:   assignment.UserID,
				Amount:   review.StarsAwarded,
				Reason:   enums.StarsReasonEarnedFromReview,
				GigID:    &gig.ID,
				ReviewID: &review.ID,
			}); err != nil {
				return err
			}
		}
		if review.PayoutCentsOwed > 0 {
			if _, err := ledger.ApplyMoney(ctx, tx, ledger.MoneyInput{
				UserID:   assignment.UserID,
				Cents:    review.PayoutCentsOwed,
				Reason:   enums.MoneyReasonPayout,
				GigID:    &gig.ID,
				ReviewID: &review.ID,
			}); err != nil {
				return err
			}
		}
		if input.Rating != nil {
			if err := users.NewRepository(tx).ApplyRating(ctx, assignment.UserID, *input.Rating); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply rating")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) loadAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.GigAssignment, *models.Gig, error) {
	assignment, err := s.repo.FindAssignmentByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	gig, err := s.loadGig(ctx, assignment.GigID)
	if err != nil {
		return nil, nil, err
	}
	return assignment, gig, nil
}
