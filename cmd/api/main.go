package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/api/routes"
	"github.com/gigdesk/gigdesk-backend/internal/authz"
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
	"github.com/gigdesk/gigdesk-backend/pkg/migrate"
	"github.com/gigdesk/gigdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	membersRepo := memberships.NewRepository(conn)

	guard, err := authz.NewGuard(membersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create authorization guard", err)
		os.Exit(1)
	}

	resetSender, err := identity.NewLogSender(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reset sender", err)
		os.Exit(1)
	}

	identityService, err := identity.NewService(identity.ServiceParams{
		DB:          dbClient,
		Repo:        identity.NewRepository(conn),
		Users:       usersRepo,
		Config:      cfg,
		Logger:      logg,
		ResetSender: resetSender,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.ServiceParams{
		DB:   dbClient,
		Repo: usersRepo,
		TxOwnershipFunc: func(tx *gorm.DB) users.SoleOwnerChecker {
			return memberships.NewRepository(tx)
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	companiesService, err := companies.NewService(companies.ServiceParams{
		DB:    dbClient,
		Repo:  companies.NewRepository(conn),
		Guard: guard,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create companies service", err)
		os.Exit(1)
	}

	membershipsService, err := memberships.NewService(memberships.ServiceParams{
		DB:    dbClient,
		Repo:  membersRepo,
		Guard: guard,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create memberships service", err)
		os.Exit(1)
	}

	gigsService, err := gigs.NewService(gigs.ServiceParams{
		DB:       dbClient,
		Repo:     gigs.NewRepository(conn),
		Guard:    guard,
		Members:  membersRepo,
		Profiles: usersRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gigs service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		DB:   dbClient,
		Repo: ledger.NewRepository(conn),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	shopService, err := shop.NewService(shop.ServiceParams{
		DB:   dbClient,
		Repo: shop.NewRepository(conn),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shop service", err)
		os.Exit(1)
	}

	watchlistService, err := watchlist.NewService(watchlist.ServiceParams{
		Repo:  watchlist.NewRepository(conn),
		Guard: guard,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create watchlist service", err)
		os.Exit(1)
	}

	locationsService, err := locations.NewService(locations.ServiceParams{
		DB:   dbClient,
		Repo: locations.NewRepository(conn),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create locations service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			identityService,
			usersService,
			companiesService,
			membershipsService,
			gigsService,
			ledgerService,
			shopService,
			watchlistService,
			locationsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
