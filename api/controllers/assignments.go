package controllers

import (
	"net/http"
	"strings"

	"github.com/gigdesk/gigdesk-backend/api/responses"
	"github.com/gigdesk/gigdesk-backend/api/validators"
	"github.com/gigdesk/gigdesk-backend/internal/gigs"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/logger"
)

type assignmentStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty"`
}

type reviewRequest struct {
	Decision string  `json:"decision" validate:"required"`
	Rating   *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment  *string `json:"comment,omitempty"`
}

// GigClaim takes an open gig for the caller, freezing its price clock.
func GigClaim(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
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

		assignment, err := svc.Claim(ctx, uid, gigID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, assignment)
	}
}

// AssignmentUpdateStatus advances an assignment through its workflow.
func AssignmentUpdateStatus(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
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

		assignmentID, err := pathUUID(r, "assignmentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload assignmentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := enums.AssignmentStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
		if !status.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown assignment status"))
			return
		}

		assignment, err := svc.UpdateAssignmentStatus(ctx, uid, assignmentID, status, payload.Note)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

// AssignmentReview records the company's verdict on completed work and, on
// approval, pays out stars and money.
func AssignmentReview(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
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

		assignmentID, err := pathUUID(r, "assignmentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload reviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		decision := enums.ReviewDecision(strings.ToUpper(strings.TrimSpace(payload.Decision)))
		if !decision.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown review decision"))
			return
		}

		review, err := svc.Review(ctx, uid, gigs.ReviewInput{
			AssignmentID: assignmentID,
			Decision:     decision,
			Rating:       payload.Rating,
			Comment:      payload.Comment,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

// AssignmentListByGig lists a gig's assignments for company staff.
func AssignmentListByGig(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
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

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		assignments, err := svc.ListAssignments(ctx, uid, gigID, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignments)
	}
}

// AssignmentListMine lists the caller's own assignments.
func AssignmentListMine(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
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

		assignments, err := svc.ListMyAssignments(ctx, uid, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignments)
	}
}

// ReviewListByGig lists the reviews recorded against a gig's assignments.
func ReviewListByGig(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
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

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reviews, err := svc.ListReviews(ctx, uid, gigID, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, reviews)
	}
}
