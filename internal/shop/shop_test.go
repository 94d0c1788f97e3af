package shop

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

func setupShopDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:shop_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Profile{},
		&models.Product{},
		&models.Purchase{},
		&models.StarsTransaction{},
		&models.GigAssignment{},
	))

	t.Cleanup(func() {
		for _, table := range []string{
			"stars_transactions", "purchases", "products", "gig_assignments", "profiles",
		} {
			conn.Exec("DELETE FROM " + table)
		}
	})
	return conn
}

func newShopService(t *testing.T, conn *gorm.DB, now func() time.Time) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{DB: db.NewFromConn(conn), Repo: NewRepository(conn), Now: now})
	require.NoError(t, err)
	return svc
}

func seedBuyer(t *testing.T, conn *gorm.DB, stars int) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		UserID:       uuid.New(),
		FirstName:    "Riley",
		LastName:     "Okafor",
		Username:     "riley-" + uuid.NewString()[:8],
		Zipcode:      "60601",
		StarsBalance: stars,
	}
	require.NoError(t, conn.Create(profile).Error)
	return profile
}

func TestPurchaseDebitsStarsAtomically(t *testing.T) {
	conn := setupShopDB(t)
	ctx := context.Background()
	svc := newShopService(t, conn, nil)
	buyer := seedBuyer(t, conn, 50)

	tier := enums.MembershipTierSilver
	duration := 3600
	product, err := svc.CreateProduct(ctx, ProductInput{
		Name:            "silver month",
		Category:        enums.ProductCategoryMembershipUpgrade,
		PriceStars:      30,
		DurationSeconds: &duration,
		GrantsTier:      &tier,
	})
	require.NoError(t, err)

	purchase, err := svc.Purchase(ctx, buyer.UserID, product.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseStatusActive, purchase.Status)
	require.Equal(t, 30, purchase.PriceStars)
	require.NotNil(t, purchase.ExpiresAt)

	var profile models.Profile
	require.NoError(t, conn.First(&profile, "user_id = ?", buyer.UserID).Error)
	require.Equal(t, 20, profile.StarsBalance)

	// second purchase cannot afford it; nothing changes
	_, err = svc.Purchase(ctx, buyer.UserID, product.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficientBalance, typed.Code())

	var purchaseCount, txCount int64
	require.NoError(t, conn.Model(&models.Purchase{}).Count(&purchaseCount).Error)
	require.NoError(t, conn.Model(&models.StarsTransaction{}).Count(&txCount).Error)
	require.Equal(t, int64(1), purchaseCount)
	require.Equal(t, int64(1), txCount)
}

func TestConsumeGrantsTierOnce(t *testing.T) {
	conn := setupShopDB(t)
	ctx := context.Background()
	svc := newShopService(t, conn, nil)
	buyer := seedBuyer(t, conn, 100)

	tier := enums.MembershipTierGold
	product, err := svc.CreateProduct(ctx, ProductInput{
		Name:       "gold upgrade",
		Category:   enums.ProductCategoryMembershipUpgrade,
		PriceStars: 40,
		GrantsTier: &tier,
	})
	require.NoError(t, err)

	purchase, err := svc.Purchase(ctx, buyer.UserID, product.ID)
	require.NoError(t, err)

	consumed, err := svc.Consume(ctx, buyer.UserID, purchase.ID, nil)
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseStatusConsumed, consumed.Status)
	require.NotNil(t, consumed.ConsumedAt)

	var profile models.Profile
	require.NoError(t, conn.First(&profile, "user_id = ?", buyer.UserID).Error)
	require.Equal(t, enums.MembershipTierGold, profile.Tier)

	_, err = svc.Consume(ctx, buyer.UserID, purchase.ID, nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// purchases are invisible to other users
	_, err = svc.GetPurchase(ctx, uuid.New(), purchase.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestLazyExpiry(t *testing.T) {
	conn := setupShopDB(t)
	ctx := context.Background()

	current := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc := newShopService(t, conn, func() time.Time { return current })
	buyer := seedBuyer(t, conn, 100)

	bonus := 500
	duration := 600
	product, err := svc.CreateProduct(ctx, ProductInput{
		Name:            "boost",
		Category:        enums.ProductCategoryPayBonus,
		PriceStars:      10,
		DurationSeconds: &duration,
		BonusCents:      &bonus,
	})
	require.NoError(t, err)

	purchase, err := svc.Purchase(ctx, buyer.UserID, product.ID)
	require.NoError(t, err)

	current = current.Add(20 * time.Minute)

	reloaded, err := svc.GetPurchase(ctx, buyer.UserID, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseStatusExpired, reloaded.Status)

	_, err = svc.Consume(ctx, buyer.UserID, purchase.ID, nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// Expire stays idempotent on the already-expired row
	again, err := svc.Expire(ctx, buyer.UserID, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseStatusExpired, again.Status)
}

func TestUpdateProductPatchesOnlyProvidedFields(t *testing.T) {
	conn := setupShopDB(t)
	ctx := context.Background()
	svc := newShopService(t, conn, nil)

	tier := enums.MembershipTierSilver
	product, err := svc.CreateProduct(ctx, ProductInput{
		Name:       "silver month",
		Category:   enums.ProductCategoryMembershipUpgrade,
		PriceStars: 30,
		GrantsTier: &tier,
	})
	require.NoError(t, err)

	// A product can go free; zero is a real price, not "unset".
	free := 0
	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{PriceStars: &free})
	require.NoError(t, err)
	require.Zero(t, updated.PriceStars)
	require.Equal(t, "silver month", updated.Name)
	require.Equal(t, enums.ProductCategoryMembershipUpgrade, updated.Category)

	name := "silver week"
	updated, err = svc.UpdateProduct(ctx, product.ID, UpdateProductInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "silver week", updated.Name)
	require.Zero(t, updated.PriceStars)

	// The merged result still has to validate.
	negative := -5
	_, err = svc.UpdateProduct(ctx, product.ID, UpdateProductInput{PriceStars: &negative})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestProductValidation(t *testing.T) {
	conn := setupShopDB(t)
	ctx := context.Background()
	svc := newShopService(t, conn, nil)

	_, err := svc.CreateProduct(ctx, ProductInput{
		Name:       "broken upgrade",
		Category:   enums.ProductCategoryMembershipUpgrade,
		PriceStars: 10,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.CreateProduct(ctx, ProductInput{
		Name:       "broken bonus",
		Category:   enums.ProductCategoryPayBonus,
		PriceStars: -5,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
