package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gigdesk/gigdesk-backend/api/controllers"
	"github.com/gigdesk/gigdesk-backend/api/middleware"
	"github.com/gigdesk/gigdesk-backend/internal/companies"
	"github.com/gigdesk/gigdesk-backend/internal/gigs"
	"github.com/gigdesk/gigdesk-backend/internal/identity"
	"github.com/gigdesk/gigdesk-backend/internal/ledger"
	"github.com/gigdesk/gigdesk-backend/internal/locations"
	"github.com/gigdesk/gigdesk-backend/internal/memberships"
	"github.com/gigdesk/gigdesk-backend/internal/shop"
	"github.com/gigdesk/gigdesk-backend/internal/users"
	"github.com/gigdesk/gigdesk-backend/internal/watchlist"
	"github.com/gigdesk/gigdesk-backend/pkg/config"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/logger"
	"github.com/gigdesk/gigdesk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	identityService identity.Service,
	usersService users.Service,
	companiesService companies.Service,
	membershipsService memberships.Service,
	gigsService gigs.Service,
	ledgerService ledger.Service,
	shopService shop.Service,
	watchlistService watchlist.Service,
	locationsService locations.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(identityService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(identityService, logg))
		r.Post("/refresh", controllers.AuthRefresh(identityService, logg))
		r.Post("/logout", controllers.AuthLogout(identityService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/password-reset", controllers.AuthRequestPasswordReset(identityService, logg))
		r.Post("/password-reset/confirm", controllers.AuthResetPassword(identityService, logg))
	})

	// Public directory endpoints carry no account data.
	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/companies", controllers.CompanySearch(companiesService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/me", controllers.ProfileMe(usersService, logg))
			r.Patch("/me", controllers.ProfileUpdate(usersService, logg))
			r.Delete("/me", controllers.ProfileDelete(usersService, logg))
			r.Get("/{username}", controllers.ProfileByUsername(usersService, logg))
		})

		r.Delete("/users/me", controllers.AccountDelete(usersService, logg))

		r.Route("/companies", func(r chi.Router) {
			r.Post("/", controllers.CompanyCreate(companiesService, logg))
			r.Get("/mine", controllers.CompanyMine(companiesService, logg))
			r.Route("/{companyId}", func(r chi.Router) {
				r.Get("/", controllers.CompanyGet(companiesService, logg))
				r.Patch("/", controllers.CompanyUpdate(companiesService, logg))
				r.Delete("/", controllers.CompanyDelete(companiesService, logg))

				r.Post("/requests", controllers.MembershipRequestJoin(membershipsService, logg))
				r.Get("/requests", controllers.MembershipListRequests(membershipsService, logg))

				r.Get("/members", controllers.MembershipListMembers(membershipsService, logg))
				r.Post("/members", controllers.MembershipAddMember(membershipsService, logg))
				r.Patch("/members/{memberId}", controllers.MembershipChangeRole(membershipsService, logg))
				r.Delete("/members/{memberId}", controllers.MembershipRemoveMember(membershipsService, logg))
				r.Delete("/membership", controllers.MembershipLeave(membershipsService, logg))

				r.Post("/gigs", controllers.GigCreate(gigsService, logg))
			})
		})

		r.Post("/requests/{requestId}/resolve", controllers.MembershipResolveRequest(membershipsService, logg))
		r.Get("/memberships/me", controllers.MembershipMine(membershipsService, logg))
		r.Get("/memberships/requests/me", controllers.MembershipMyRequests(membershipsService, logg))

		r.Route("/gigs", func(r chi.Router) {
			r.Get("/", controllers.GigList(gigsService, logg))
			r.Route("/{gigId}", func(r chi.Router) {
				r.Get("/", controllers.GigGet(gigsService, logg))
				r.Patch("/", controllers.GigUpdate(gigsService, logg))
				r.Delete("/", controllers.GigDelete(gigsService, logg))
				r.Post("/status", controllers.GigUpdateStatus(gigsService, logg))
				r.Post("/repost", controllers.GigRepost(gigsService, logg))
				r.Post("/claim", controllers.GigClaim(gigsService, logg))
				r.Get("/assignments", controllers.AssignmentListByGig(gigsService, logg))
				r.Get("/reviews", controllers.ReviewListByGig(gigsService, logg))
			})
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Get("/me", controllers.AssignmentListMine(gigsService, logg))
			r.Post("/{assignmentId}/status", controllers.AssignmentUpdateStatus(gigsService, logg))
			r.Post("/{assignmentId}/review", controllers.AssignmentReview(gigsService, logg))
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/stars", controllers.LedgerStarsHistory(ledgerService, logg))
			r.Post("/stars", controllers.LedgerRecordStars(ledgerService, logg))
			r.Get("/money", controllers.LedgerMoneyHistory(ledgerService, logg))
			r.Post("/money", controllers.LedgerRecordMoney(ledgerService, logg))
		})

		r.Route("/shop", func(r chi.Router) {
			r.Get("/products", controllers.ProductList(shopService, logg))
			r.Post("/products", controllers.ProductCreate(shopService, logg))
			r.Get("/products/{productId}", controllers.ProductGet(shopService, logg))
			r.Put("/products/{productId}", controllers.ProductUpdate(shopService, logg))

			r.Post("/purchases", controllers.PurchaseCreate(shopService, logg))
			r.Get("/purchases", controllers.PurchaseListMine(shopService, logg))
			r.Get("/purchases/{purchaseId}", controllers.PurchaseGet(shopService, logg))
			r.Post("/purchases/{purchaseId}/consume", controllers.PurchaseConsume(shopService, logg))
			r.Post("/purchases/{purchaseId}/expire", controllers.PurchaseExpire(shopService, logg))
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", controllers.WatchlistMine(watchlistService, logg))
			r.Post("/", controllers.WatchlistAdd(watchlistService, logg))
			r.Delete("/{gigId}", controllers.WatchlistRemove(watchlistService, logg))
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", controllers.LocationList(locationsService, logg))
			r.Post("/", controllers.LocationCreate(locationsService, logg))
			r.Get("/{locationId}", controllers.LocationGet(locationsService, logg))
			r.Patch("/{locationId}", controllers.LocationUpdate(locationsService, logg))
			r.Delete("/{locationId}", controllers.LocationDelete(locationsService, logg))
		})
	})

	return r
}
