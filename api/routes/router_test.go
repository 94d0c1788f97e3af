package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gigdesk/gigdesk-backend/internal/companies"
	"github.com/gigdesk/gigdesk-backend/internal/gigs"
	"github.com/gigdesk/gigdesk-backend/internal/identity"
	"github.com/gigdesk/gigdesk-backend/internal/ledger"
	"github.com/gigdesk/gigdesk-backend/internal/locations"
	"github.com/gigdesk/gigdesk-backend/internal/shop"
	"github.com/gigdesk/gigdesk-backend/internal/users"
	"github.com/gigdesk/gigdesk-backend/internal/watchlist"
	pkgAuth "github.com/gigdesk/gigdesk-backend/pkg/auth"
	"github.com/gigdesk/gigdesk-backend/pkg/config"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	"github.com/gigdesk/gigdesk-backend/pkg/logger"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
	"github.com/gigdesk/gigdesk-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubIdentityService struct{}

func (stubIdentityService) Register(ctx context.Context, input identity.RegisterInput) (*identity.Session, error) {
	return &identity.Session{}, nil
}

func (stubIdentityService) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	return &identity.Session{}, nil
}

func (stubIdentityService) Refresh(ctx context.Context, rawRefreshToken string) (*identity.Session, error) {
	return &identity.Session{}, nil
}

func (stubIdentityService) Logout(ctx context.Context, rawRefreshToken string) error {
	return nil
}

func (stubIdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	return nil
}

func (stubIdentityService) ResetPassword(ctx context.Context, rawResetToken, newPassword string) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return &models.Profile{}, nil
}

func (stubUsersService) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return &models.Profile{}, nil
}

func (stubUsersService) UpdateProfile(ctx context.Context, userID uuid.UUID, input users.UpdateProfileInput) (*models.Profile, error) {
	return &models.Profile{}, nil
}

func (stubUsersService) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (stubUsersService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return nil
}

type stubCompaniesService struct{}

func (stubCompaniesService) Create(ctx context.Context, creatorID uuid.UUID, input companies.CreateInput) (*models.Company, error) {
	return &models.Company{}, nil
}

func (stubCompaniesService) Get(ctx context.Context, callerID, companyID uuid.UUID) (*models.Company, error) {
	return &models.Company{}, nil
}

func (stubCompaniesService) Update(ctx context.Context, callerID, companyID uuid.UUID, input companies.UpdateInput) (*models.Company, error) {
	return &models.Company{}, nil
}

func (stubCompaniesService) Search(ctx context.Context, query string, page pagination.Params) ([]models.Company, error) {
	return []models.Company{}, nil
}

func (stubCompaniesService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Company, error) {
	return nil, nil
}

func (stubCompaniesService) Delete(ctx context.Context, callerID, companyID uuid.UUID) error {
	return nil
}

type stubMembershipsService struct{}

func (stubMembershipsService) RequestToJoin(ctx context.Context, userID, companyID uuid.UUID, role enums.CompanyRole, note *string) (*models.MembershipRequest, error) {
	return &models.MembershipRequest{}, nil
}

func (stubMembershipsService) ListRequests(ctx context.Context, callerID, companyID uuid.UUID, status *enums.MembershipRequestStatus, page pagination.Params) ([]models.MembershipRequest, error) {
	return []models.MembershipRequest{}, nil
}

func (stubMembershipsService) ResolveRequest(ctx context.Context, callerID, requestID uuid.UUID, approve bool, note *string) (*models.MembershipRequest, error) {
	return &models.MembershipRequest{}, nil
}

func (stubMembershipsService) ListMembers(ctx context.Context, callerID, companyID uuid.UUID) ([]models.Member, error) {
	return []models.Member{}, nil
}

func (stubMembershipsService) ListMyRequests(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.MembershipRequest, error) {
	return nil, nil
}

func (stubMembershipsService) ListMyMemberships(ctx context.Context, userID uuid.UUID) ([]models.Member, error) {
	return []models.Member{}, nil
}

func (stubMembershipsService) AddMember(ctx context.Context, callerID, companyID, userID uuid.UUID, role enums.CompanyRole) (*models.Member, error) {
	return &models.Member{}, nil
}

func (stubMembershipsService) ChangeMemberRole(ctx context.Context, callerID, companyID, memberID uuid.UUID, role enums.CompanyRole) (*models.Member, error) {
	return &models.Member{}, nil
}

func (stubMembershipsService) RemoveMember(ctx context.Context, callerID, companyID, memberID uuid.UUID) error {
	return nil
}

func (stubMembershipsService) LeaveCompany(ctx context.Context, userID, companyID uuid.UUID) error {
	return nil
}

type stubGigsService struct{}

func (stubGigsService) Create(ctx context.Context, userID uuid.UUID, input gigs.CreateInput) (*gigs.GigWithQuote, error) {
	return &gigs.GigWithQuote{}, nil
}

func (stubGigsService) Get(ctx context.Context, userID, gigID uuid.UUID) (*gigs.GigWithQuote, error) {
	return &gigs.GigWithQuote{}, nil
}

func (stubGigsService) List(ctx context.Context, userID uuid.UUID, filter gigs.ListFilter, page pagination.Params) ([]gigs.GigWithQuote, error) {
	return []gigs.GigWithQuote{}, nil
}

func (stubGigsService) Update(ctx context.Context, userID, gigID uuid.UUID, input gigs.UpdateInput) (*gigs.GigWithQuote, error) {
	return &gigs.GigWithQuote{}, nil
}

func (stubGigsService) Delete(ctx context.Context, userID, gigID uuid.UUID) error {
	return nil
}

func (stubGigsService) UpdateStatus(ctx context.Context, userID, gigID uuid.UUID, status enums.GigStatus) (*gigs.GigWithQuote, error) {
	return &gigs.GigWithQuote{}, nil
}

func (stubGigsService) Repost(ctx context.Context, userID, gigID uuid.UUID) (*gigs.GigWithQuote, error) {
	return &gigs.GigWithQuote{}, nil
}

func (stubGigsService) Claim(ctx context.Context, userID, gigID uuid.UUID) (*models.GigAssignment, error) {
	return &models.GigAssignment{}, nil
}

func (stubGigsService) UpdateAssignmentStatus(ctx context.Context, userID, assignmentID uuid.UUID, status enums.AssignmentStatus, note *string) (*models.GigAssignment, error) {
	return &models.GigAssignment{}, nil
}

func (stubGigsService) Review(ctx context.Context, userID uuid.UUID, input gigs.ReviewInput) (*models.GigReview, error) {
	return &models.GigReview{}, nil
}

func (stubGigsService) ListAssignments(ctx context.Context, userID, gigID uuid.UUID, page pagination.Params) ([]models.GigAssignment, error) {
	return []models.GigAssignment{}, nil
}

func (stubGigsService) ListMyAssignments(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.GigAssignment, error) {
	return []models.GigAssignment{}, nil
}

func (stubGigsService) ListReviews(ctx context.Context, userID, gigID uuid.UUID, page pagination.Params) ([]models.GigReview, error) {
	return []models.GigReview{}, nil
}

type stubLedgerService struct{}

func (stubLedgerService) RecordStars(ctx context.Context, input ledger.StarsInput) (*models.StarsTransaction, error) {
	return &models.StarsTransaction{}, nil
}

func (stubLedgerService) RecordMoney(ctx context.Context, input ledger.MoneyInput) (*models.MoneyTransaction, error) {
	return &models.MoneyTransaction{}, nil
}

func (stubLedgerService) ListStars(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.StarsTransaction, error) {
	return []models.StarsTransaction{}, nil
}

func (stubLedgerService) ListMoney(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.MoneyTransaction, error) {
	return []models.MoneyTransaction{}, nil
}

type stubShopService struct{}

func (stubShopService) CreateProduct(ctx context.Context, input shop.ProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubShopService) UpdateProduct(ctx context.Context, productID uuid.UUID, input shop.UpdateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubShopService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubShopService) ListProducts(ctx context.Context, filter shop.ProductFilter, page pagination.Params) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubShopService) Purchase(ctx context.Context, userID, productID uuid.UUID) (*models.Purchase, error) {
	return &models.Purchase{}, nil
}

func (stubShopService) Consume(ctx context.Context, userID, purchaseID uuid.UUID, assignmentID *uuid.UUID) (*models.Purchase, error) {
	return &models.Purchase{}, nil
}

func (stubShopService) Expire(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error) {
	return &models.Purchase{}, nil
}

func (stubShopService) GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error) {
	return &models.Purchase{}, nil
}

func (stubShopService) ListMyPurchases(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Purchase, error) {
	return []models.Purchase{}, nil
}

type stubWatchlistService struct{}

func (stubWatchlistService) Add(ctx context.Context, userID, gigID uuid.UUID) (*models.WatchlistEntry, error) {
	return &models.WatchlistEntry{}, nil
}

func (stubWatchlistService) Remove(ctx context.Context, userID, gigID uuid.UUID) error {
	return nil
}

func (stubWatchlistService) ListMine(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]watchlist.Entry, error) {
	return []watchlist.Entry{}, nil
}

type stubLocationsService struct{}

func (stubLocationsService) Create(ctx context.Context, input locations.CreateInput) (*models.Location, error) {
	return &models.Location{}, nil
}

func (stubLocationsService) Get(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	return &models.Location{}, nil
}

func (stubLocationsService) List(ctx context.Context, page pagination.Params) ([]models.Location, error) {
	return []models.Location{}, nil
}

func (stubLocationsService) Update(ctx context.Context, id uuid.UUID, input locations.UpdateInput) (*models.Location, error) {
	return &models.Location{}, nil
}

func (stubLocationsService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:              "secret",
			Issuer:              "issuer",
			ExpirationMinutes:   60,
			RefreshTokenTTLDays: 7,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubIdentityService{},
		stubUsersService{},
		stubCompaniesService{},
		stubMembershipsService{},
		stubGigsService{},
		stubLedgerService{},
		stubShopService{},
		stubWatchlistService{},
		stubLocationsService{},
	)
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for profile me got %d", resp.Code)
	}
}

func TestPublicCompanySearchNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/companies?q=acme", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public search got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestAuthRegisterRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestWatchlistRemoveRejectsBadUUID(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/watchlist/not-a-uuid", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad gig id got %d", resp.Code)
	}
}

func TestGigClaimSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gigs/"+uuid.NewString()+"/claim", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for claim got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	profileID := uuid.New()
	tier := enums.MembershipTierCopper
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:    uuid.New(),
		ProfileID: &profileID,
		Tier:      &tier,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
