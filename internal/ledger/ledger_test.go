package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

func setupLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:ledger_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Profile{},
		&models.StarsTransaction{},
		&models.MoneyTransaction{},
	))

	t.Cleanup(func() {
		conn.Exec(`DELETE FROM stars_transactions`)
		conn.Exec(`DELETE FROM money_transactions`)
		conn.Exec(`DELETE FROM profiles`)
	})
	return conn
}

func seedProfile(t *testing.T, conn *gorm.DB, stars int) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		UserID:       uuid.New(),
		FirstName:    "Sam",
		LastName:     "Vega",
		Username:     "sam-" + uuid.NewString()[:8],
		Zipcode:      "97201",
		StarsBalance: stars,
	}
	require.NoError(t, conn.Create(profile).Error)
	return profile
}

func newLedgerService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{DB: db.NewFromConn(conn), Repo: NewRepository(conn)})
	require.NoError(t, err)
	return svc
}

func TestRecordStarsMovesBalance(t *testing.T) {
	conn := setupLedgerDB(t)
	ctx := context.Background()
	svc := newLedgerService(t, conn)
	profile := seedProfile(t, conn, 10)

	entry, err := svc.RecordStars(ctx, StarsInput{
		UserID: profile.UserID,
		Amount: 5,
		Reason: enums.StarsReasonEarnedFromReview,
	})
	require.NoError(t, err)
	require.Equal(t, 5, entry.Amount)

	var reloaded models.Profile
	require.NoError(t, conn.First(&reloaded, "id = ?", profile.ID).Error)
	require.Equal(t, 15, reloaded.StarsBalance)
}

func TestRecordStarsRefusesOverdraft(t *testing.T) {
	conn := setupLedgerDB(t)
	ctx := context.Background()
	svc := newLedgerService(t, conn)
	profile := seedProfile(t, conn, 3)

	_, err := svc.RecordStars(ctx, StarsInput{
		UserID: profile.UserID,
		Amount: -4,
		Reason: enums.StarsReasonSpentOnProduct,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficientBalance, typed.Code())

	// the whole transaction rolled back: no orphan ledger row
	var count int64
	require.NoError(t, conn.Model(&models.StarsTransaction{}).Count(&count).Error)
	require.Zero(t, count)

	var reloaded models.Profile
	require.NoError(t, conn.First(&reloaded, "id = ?", profile.ID).Error)
	require.Equal(t, 3, reloaded.StarsBalance)
}

func TestRecordStarsRejectsZeroAndUnknownUser(t *testing.T) {
	conn := setupLedgerDB(t)
	ctx := context.Background()
	svc := newLedgerService(t, conn)
	profile := seedProfile(t, conn, 3)

	_, err := svc.RecordStars(ctx, StarsInput{
		UserID: profile.UserID,
		Amount: 0,
		Reason: enums.StarsReasonAdjustment,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.RecordStars(ctx, StarsInput{
		UserID: uuid.New(),
		Amount: 1,
		Reason: enums.StarsReasonAdjustment,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRecordMoneyAndList(t *testing.T) {
	conn := setupLedgerDB(t)
	ctx := context.Background()
	svc := newLedgerService(t, conn)
	profile := seedProfile(t, conn, 0)

	_, err := svc.RecordMoney(ctx, MoneyInput{
		UserID: profile.UserID,
		Cents:  2500,
		Reason: enums.MoneyReasonPayout,
	})
	require.NoError(t, err)

	_, err = svc.RecordMoney(ctx, MoneyInput{
		UserID: profile.UserID,
		Cents:  0,
		Reason: enums.MoneyReasonAdjustment,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	entries, err := svc.ListMoney(ctx, profile.UserID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 2500, entries[0].Cents)
}
