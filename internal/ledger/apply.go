package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

// StarsInput describes one stars ledger entry. Amount is positive for a
// credit and negative for a debit.
type StarsInput struct {
	UserID     uuid.UUID
	Amount     int
	Reason     enums.StarsReason
	GigID      *uuid.UUID
	ReviewID   *uuid.UUID
	PurchaseID *uuid.UUID
	Note       *string
}

// MoneyInput describes one money ledger entry in cents.
type MoneyInput struct {
	UserID   uuid.UUID
	Cents    int
	Reason   enums.MoneyReason
	GigID    *uuid.UUID
	ReviewID *uuid.UUID
	Note     *string
}

// ApplyStars writes a stars entry and moves the profile balance inside the
// caller's transaction. A debit that would take the balance negative fails
// with an insufficient-balance error and the transaction rolls back.
func ApplyStars(ctx context.Context, tx *gorm.DB, input StarsInput) (*models.StarsTransaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Amount == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stars amount cannot be zero")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown stars reason")
	}

	repo := NewRepository(tx)
	affected, err := repo.AdjustStarsBalance(ctx, input.UserID, input.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stars balance")
	}
	if affected == 0 {
		exists, err := repo.ProfileExists(ctx, input.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check profile")
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "not enough stars")
	}

	entry := &models.StarsTransaction{
		UserID:     input.UserID,
		Amount:     input.Amount,
		Reason:     input.Reason,
		GigID:      input.GigID,
		ReviewID:   input.ReviewID,
		PurchaseID: input.PurchaseID,
		Note:       input.Note,
	}
	if err := repo.CreateStarsTransaction(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stars transaction")
	}
	return entry, nil
}

// ApplyMoney writes a money entry inside the caller's transaction. Money
// carries no running balance; the row itself is the record.
func ApplyMoney(ctx context.Context, tx *gorm.DB, input MoneyInput) (*models.MoneyTransaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Cents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cents amount cannot be zero")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown money reason")
	}

	entry := &models.MoneyTransaction{
		UserID:   input.UserID,
		Cents:    input.Cents,
		Reason:   input.Reason,
		GigID:    input.GigID,
		ReviewID: input.ReviewID,
		Note:     input.Note,
	}
	if err := NewRepository(tx).CreateMoneyTransaction(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record money transaction")
	}
	return entry, nil
}
