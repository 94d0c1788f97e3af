package gigs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/authz"
	"github.com/gigdesk/gigdesk-backend/internal/cascade"
	"github.com/gigdesk/gigdesk-backend/internal/memberships"
	"github.com/gigdesk/gigdesk-backend/internal/users"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

func setupGigsDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:gigs_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Company{},
		&models.Member{},
		&models.Profile{},
		&models.Gig{},
		&models.GigAssignment{},
		&models.GigReview{},
		&models.WatchlistEntry{},
		&models.StarsTransaction{},
		&models.MoneyTransaction{},
	))

	t.Cleanup(func() {
		for _, table := range []string{
			"stars_transactions", "money_transactions", "gig_reviews",
			"watchlist_entries", "gig_assignments", "gigs", "profiles",
			"members", "companies",
		} {
			conn.Exec("DELETE FROM " + table)
		}
	})
	return conn
}

func newGigsService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	membersRepo := memberships.NewRepository(conn)
	guard, err := authz.NewGuard(membersRepo)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		DB:       db.NewFromConn(conn),
		Repo:     NewRepository(conn),
		Guard:    guard,
		Members:  membersRepo,
		Profiles: users.NewRepository(conn),
	})
	require.NoError(t, err)
	return svc
}

func seedMember(t *testing.T, conn *gorm.DB, companyID uuid.UUID, role enums.CompanyRole) uuid.UUID {
	t.Helper()
	require.NoError(t, conn.
		Where("id = ?", companyID).
		FirstOrCreate(&models.Company{ID: companyID, Name: "co-" + companyID.String()}).Error)
	userID := uuid.New()
	require.NoError(t, conn.Create(&models.Member{
		CompanyID: companyID, UserID: userID, Role: role,
	}).Error)
	return userID
}

func seedContractorProfile(t *testing.T, conn *gorm.DB, userID uuid.UUID, tier enums.MembershipTier) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		UserID:    userID,
		FirstName: "Dana",
		LastName:  "Cole",
		Username:  "dana-" + uuid.NewString()[:8],
		Zipcode:   "30303",
		Tier:      tier,
	}
	require.NoError(t, conn.Create(profile).Error)
	return profile
}

func TestCreateValidatesPricingConfig(t *testing.T) {
	conn := setupGigsDB(t)
	ctx := context.Background()
	svc := newGigsService(t, conn)

	companyID := uuid.New()
	creator := seedMember(t, conn, companyID, enums.CompanyRoleCreator)

	created, err := svc.Create(ctx, creator, CreateInput{
		CompanyID:      companyID,
		Title:          "stage build",
		BasePriceCents: 4500,
		BaseStars:      10,
	})
	require.NoError(t, err)
	require.Equal(t, 1800, created.Gig.BumpEverySeconds)
	require.Equal(t, 100, created.Gig.BumpCents)
	require.Equal(t, enums.GigStatusDraft, created.Gig.Status)
	require.Equal(t, 4500, created.Quote.CurrentPriceCents)

	_, err = svc.Create(ctx, creator, CreateInput{
		CompanyID:      companyID,
		Title:          "bad config",
		BasePriceCents: -1,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// outsiders cannot create gigs
	_, err = svc.Create(ctx, uuid.New(), CreateInput{CompanyID: companyID, Title: "nope"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestClaimIsExclusive(t *testing.T) {
	conn := setupGigsDB(t)
	ctx := context.Background()
	svc := newGigsService(t, conn)

	companyID := uuid.New()
	manager := seedMember(t, conn, companyID, enums.CompanyRoleManager)
	first := seedMember(t, conn, companyID, enums.CompanyRoleCreator)
	second := seedMember(t, conn, companyID, enums.CompanyRoleCreator)

	created, err := svc.Create(ctx, manager, CreateInput{
		CompanyID:      companyID,
		Title:          "door crew",
		BasePriceCents: 2000,
	})
	require.NoError(t, err)
	gigID := created.Gig.ID

	_, err = svc.UpdateStatus(ctx, manager, gigID, enums.GigStatusOpen)
	require.NoError(t, err)

	// a bookmark that must disappear once the gig is claimed
	require.NoError(t, conn.Create(&models.WatchlistEntry{UserID: second, GigID: gigID}).Error)

	assignment, err := svc.Claim(ctx, first, gigID)
	require.NoError(t, err)
	require.Equal(t, enums.AssignmentStatusClaimed, assignment.Status)
	require.False(t, assignment.ClaimedAt.IsZero())

	_, err = svc.Claim(ctx, second, gigID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	var gig models.Gig
	require.NoError(t, conn.First(&gig, "id = ?", gigID).Error)
	require.Equal(t, enums.GigStatusClaimed, gig.Status)

	var watchCount int64
	require.NoError(t, conn.Model(&models.WatchlistEntry{}).Where("gig_id = ?", gigID).Count(&watchCount).Error)
	require.Zero(t, watchCount)
}

func TestClaimEnforcesRequiredTier(t *testing.T) {
	conn := setupGigsDB(t)
	ctx := context.Background()
	svc := newGigsService(t, conn)

	companyID := uuid.New()
	manager := seedMember(t, conn, companyID, enums.CompanyRoleManager)
	worker := seedMember(t, conn, companyID, enums.CompanyRoleCreator)
	seedContractorProfile(t, conn, worker, enums.MembershipTierCopper)

	gold := enums.MembershipTierGold
	created, err := svc.Create(ctx, manager, CreateInput{
		CompanyID:    companyID,
		Title:        "vip detail",
		RequiredTier: &gold,
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, manager, created.Gig.ID, enums.GigStatusOpen)
	require.NoError(t, err)

	_, err = svc.Claim(ctx, worker, created.Gig.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	require.NoError(t, conn.Model(&models.Profile{}).
		Where("user_id = ?", worker).
		Update("tier", enums.MembershipTierDiamond).Error)
	_, err = svc.Claim(ctx, worker, created.Gig.ID)
	require.NoError(t, err)
}

func TestReviewApprovalPaysOutOnce(t *testing.T) {
	conn := setupGigsDB(t)
	ctx := context.Background()
	svc := newGigsService(t, conn)

	companyID := uuid.New()
	manager := seedMember(t, conn, companyID, enums.CompanyRoleManager)
	worker := seedMember(t, conn, companyID, enums.CompanyRoleCreator)
	seedContractorProfile(t, conn, worker, enums.MembershipTierCopper)

	created, err := svc.Create(ctx, manager, CreateInput{
		CompanyID:      companyID,
		Title:          "inventory audit",
		BasePriceCents: 3000,
		BaseStars:      10,
	})
	require.NoError(t, err)
	gigID := created.Gig.ID

	_, err = svc.UpdateStatus(ctx, manager, gigID, enums.GigStatusOpen)
	require.NoError(t, err)
	assignment, err := svc.Claim(ctx, worker, gigID)
	require.NoError(t, err)

	_, err = svc.UpdateAssignmentStatus(ctx, worker, assignment.ID, enums.AssignmentStatusSubmitted, nil)
	require.NoError(t, err)

	rating := 4
	review, err := svc.Review(ctx, manager, ReviewInput{
		AssignmentID: assignment.ID,
		Decision:     enums.ReviewDecisionApproved,
		Rating:       &rating,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, review.StarsAwarded, 10)
	require.GreaterOrEqual(t, review.PayoutCentsOwed, 3000)

	var profile models.Profile
	require.NoError(t, conn.First(&profile, "user_id = ?", worker).Error)
	require.Equal(t, review.StarsAwarded, profile.StarsBalance)
	require.Equal(t, 1, profile.RatingCount)

	var starsCount, moneyCount int64
	require.NoError(t, conn.Model(&models.StarsTransaction{}).Count(&starsCount).Error)
	require.NoError(t, conn.Model(&models.MoneyTransaction{}).Count(&moneyCount).Error)
	require.Equal(t, int64(1), starsCount)
	require.Equal(t, int64(1), moneyCount)

	var gig models.Gig
	require.NoError(t, conn.First(&gig, "id = ?", gigID).Error)
	require.Equal(t, enums.GigStatusCompleted, gig.Status)

	reloaded, err := svc.(*service).repo.FindAssignmentByID(ctx, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, enums.AssignmentStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.ReviewedAt)
	require.NotNil(t, reloaded.CompletedAt)

	// a second review of the same assignment is refused
	_, err = svc.Review(ctx, manager, ReviewInput{
		AssignmentID: assignment.ID,
		Decision:     enums.ReviewDecisionRejected,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestReviewRejectionSkipsPayout(t *testing.T) {
	conn := setupGigsDB(t)
	ctx := context.Background()
	svc := newGigsService(t, conn)

	companyID := uuid.New()
	manager := seedMember(t, conn, companyID, enums.CompanyRoleManager)
	worker := seedMember(t, conn, companyID, enums.CompanyRoleCreator)
	seedContractorProfile(t, conn, worker, enums.MembershipTierCopper)

	created, err := svc.Create(ctx, manager, CreateInput{
		CompanyID: companyID,
		Title:     "flyer drop",
		BaseStars: 3,
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, manager, created.Gig.ID, enums.GigStatusOpen)
	require.NoError(t, err)
	assignment, err := svc.Claim(ctx, worker, created.Gig.ID)
	require.NoError(t, err)

	review, err := svc.Review(ctx, worker, ReviewInput{
		AssignmentID: assignment.ID,
		Decision:     enums.ReviewDecisionRejected,
	})
	// creators cannot review
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	review, err = svc.Review(ctx, manager, ReviewInput{
		AssignmentID: assignment.ID,
		Decision:     enums.ReviewDecisionRejected,
	})
	require.NoError(t, err)
	require.Equal(t, enums.ReviewDecisionRejected, review.Decision)

	var profile models.Profile
	require.NoError(t, conn.First(&profile, "user_id = ?", worker).Error)
	require.Zero(t, profile.StarsBalance)

	reloaded, err := svc.(*service).repo.FindAssignmentByID(ctx, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, enums.AssignmentStatusReviewed, reloaded.Status)
}

func TestPriceFreezesAtClaim(t *testing.T) {
	conn := setupGigsDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	membersRepo := memberships.NewRepository(conn)
	guard, err := authz.NewGuard(membersRepo)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		DB:       db.NewFromConn(conn),
		Repo:     NewRepository(conn),
		Guard:    guard,
		Members:  membersRepo,
		Profiles: users.NewRepository(conn),
		Now:      func() time.Time { return current },
	})
	require.NoError(t, err)

	companyID := uuid.New()
	manager := seedMember(t, conn, companyID, enums.CompanyRoleManager)
	worker := seedMember(t, conn, companyID, enums.CompanyRoleCreator)

	created, err := svc.Create(ctx, manager, CreateInput{
		CompanyID:      companyID,
		Title:          "ramp crew",
		BasePriceCents: 4500,
	})
	require.NoError(t, err)
	gigID := created.Gig.ID
	_, err = svc.UpdateStatus(ctx, manager, gigID, enums.GigStatusOpen)
	require.NoError(t, err)

	_, err = svc.Claim(ctx, worker, gigID)
	require.NoError(t, err)
	claimed, err := svc.Get(ctx, manager, gigID)
	require.NoError(t, err)
	frozen := claimed.Quote.CurrentPriceCents

	current = base.Add(6 * time.Hour)
	later, err := svc.Get(ctx, manager, gigID)
	require.NoError(t, err)
	require.Equal(t, frozen, later.Quote.CurrentPriceCents)
}

func TestGigDeletionClearsPurchaseAssignmentLinks(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:gigs_fk_test?mode=memory&cache=shared&_foreign_keys=1"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Gig{},
		&models.GigAssignment{},
		&models.GigReview{},
		&models.WatchlistEntry{},
		&models.StarsTransaction{},
		&models.MoneyTransaction{},
	))
	// the production schema's foreign key into gig_assignments, which
	// AutoMigrate from the model does not carry
	require.NoError(t, conn.Exec(`CREATE TABLE purchases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		price_stars INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		expires_at DATETIME,
		consumed_at DATETIME,
		applied_to_assignment_id TEXT REFERENCES gig_assignments (id),
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)

	ctx := context.Background()
	gig := &models.Gig{CompanyID: uuid.New(), CreatedByUserID: uuid.New(), Title: "teardown", Status: enums.GigStatusCompleted}
	require.NoError(t, conn.Create(gig).Error)
	assignment := &models.GigAssignment{GigID: gig.ID, UserID: uuid.New(), Status: enums.AssignmentStatusCompleted}
	require.NoError(t, conn.Create(assignment).Error)
	purchase := &models.Purchase{
		UserID:                assignment.UserID,
		ProductID:             uuid.New(),
		PriceStars:            25,
		Status:                enums.PurchaseStatusConsumed,
		AppliedToAssignmentID: &assignment.ID,
	}
	require.NoError(t, conn.Create(purchase).Error)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		_, err := cascade.Execute(ctx, tx, DeletionPlan(gig.ID))
		return err
	}))

	var kept models.Purchase
	require.NoError(t, conn.First(&kept, "id = ?", purchase.ID).Error)
	require.Nil(t, kept.AppliedToAssignmentID)

	var gigs int64
	require.NoError(t, conn.Model(&models.Gig{}).Where("id = ?", gig.ID).Count(&gigs).Error)
	require.Zero(t, gigs)
}
