package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/memberships"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

func setupUsersDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:users_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Company{},
		&models.Member{},
		&models.MembershipRequest{},
		&models.GigAssignment{},
		&models.GigReview{},
		&models.WatchlistEntry{},
		&models.Purchase{},
		&models.StarsTransaction{},
		&models.MoneyTransaction{},
		&models.RefreshToken{},
		&models.PasswordResetToken{},
	))

	t.Cleanup(func() {
		for _, table := range []string{
			"password_reset_tokens", "refresh_tokens",
			"stars_transactions", "money_transactions", "purchases",
			"watchlist_entries", "gig_reviews", "gig_assignments",
			"membership_requests", "members", "companies",
			"profiles", "users",
		} {
			conn.Exec("DELETE FROM " + table)
		}
	})
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		DB:   db.NewFromConn(conn),
		Repo: NewRepository(conn),
		TxOwnershipFunc: func(tx *gorm.DB) SoleOwnerChecker {
			return memberships.NewRepository(tx)
		},
	})
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, conn.Create(user).Error)
	require.NoError(t, conn.Create(&models.Profile{
		UserID:    user.ID,
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Zipcode:   "30301",
	}).Error)
	return user
}

func TestUpdateProfileRejectsTakenUsername(t *testing.T) {
	conn := setupUsersDB(t)
	ctx := context.Background()
	svc := newTestService(t, conn)

	seedUser(t, conn, "first")
	second := seedUser(t, conn, "second")

	taken := "first"
	_, err := svc.UpdateProfile(ctx, second.ID, UpdateProfileInput{Username: &taken})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestDeleteProfileKeepsAccount(t *testing.T) {
	conn := setupUsersDB(t)
	ctx := context.Background()
	svc := newTestService(t, conn)

	user := seedUser(t, conn, "ghosting")
	require.NoError(t, svc.DeleteProfile(ctx, user.ID))

	_, err := svc.GetProfileByUserID(ctx, user.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	var users int64
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", user.ID).Count(&users).Error)
	require.EqualValues(t, 1, users)

	err = svc.DeleteProfile(ctx, user.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteAccountBlocksSoleOwner(t *testing.T) {
	conn := setupUsersDB(t)
	ctx := context.Background()
	svc := newTestService(t, conn)

	user := seedUser(t, conn, "soleowner")
	company := &models.Company{Name: "One Owner LLC"}
	require.NoError(t, conn.Create(company).Error)
	require.NoError(t, conn.Create(&models.Member{
		CompanyID: company.ID, UserID: user.ID, Role: enums.CompanyRoleOwner,
	}).Error)

	err := svc.DeleteAccount(ctx, user.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// A second owner unblocks the erasure.
	require.NoError(t, conn.Create(&models.Member{
		CompanyID: company.ID, UserID: uuid.New(), Role: enums.CompanyRoleOwner,
	}).Error)
	require.NoError(t, svc.DeleteAccount(ctx, user.ID))
}

func TestDeleteAccountErasesOwnedRows(t *testing.T) {
	conn := setupUsersDB(t)
	ctx := context.Background()
	svc := newTestService(t, conn)

	user := seedUser(t, conn, "leaving")
	require.NoError(t, conn.Create(&models.StarsTransaction{
		UserID: user.ID, Amount: 5, Reason: enums.StarsReasonAdjustment,
	}).Error)
	require.NoError(t, conn.Create(&models.RefreshToken{
		UserID: user.ID, TokenHash: "hash-leaving", ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, svc.DeleteAccount(ctx, user.ID))

	for _, check := range []struct {
		model any
		where string
	}{
		{&models.User{}, "id = ?"},
		{&models.Profile{}, "user_id = ?"},
		{&models.StarsTransaction{}, "user_id = ?"},
		{&models.RefreshToken{}, "user_id = ?"},
	} {
		var count int64
		require.NoError(t, conn.Model(check.model).Where(check.where, user.ID).Count(&count).Error)
		require.Zero(t, count)
	}
}
