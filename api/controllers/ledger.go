package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gigdesk/gigdesk-backend/api/responses"
	"github.com/gigdesk/gigdesk-backend/api/validators"
	"github.com/gigdesk/gigdesk-backend/internal/ledger"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/logger"
)

type recordStarsRequest struct {
	Amount int        `json:"amount" validate:"required"`
	Reason string     `json:"reason" validate:"required"`
	GigID  *uuid.UUID `json:"gig_id,omitempty"`
	Note   *string    `json:"note,omitempty"`
}

type recordMoneyRequest struct {
	Cents  int        `json:"cents" validate:"required"`
	Reason string     `json:"reason" validate:"required"`
	GigID  *uuid.UUID `json:"gig_id,omitempty"`
	Note   *string    `json:"note,omitempty"`
}

// LedgerRecordStars appends a self-scoped stars entry. The ledger rejects
// zero deltas and debits past the balance.
func LedgerRecordStars(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload recordStarsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reason, err := enums.ParseStarsReason(payload.Reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		entry, err := svc.RecordStars(ctx, ledger.StarsInput{
			UserID: uid,
			Amount: payload.Amount,
			Reason: reason,
			GigID:  payload.GigID,
			Note:   payload.Note,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// LedgerRecordMoney appends a self-scoped money entry.
func LedgerRecordMoney(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		uid, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload recordMoneyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reason, err := enums.ParseMoneyReason(payload.Reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		entry, err := svc.RecordMoney(ctx, ledger.MoneyInput{
			UserID: uid,
			Cents:  payload.Cents,
			Reason: reason,
			GigID:  payload.GigID,
			Note:   payload.Note,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// LedgerStarsHistory lists the caller's stars transactions, newest first.
func LedgerStarsHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
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

		entries, err := svc.ListStars(ctx, uid, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// LedgerMoneyHistory lists the caller's money transactions, newest first.
func LedgerMoneyHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
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

		entries, err := svc.ListMoney(ctx, uid, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
