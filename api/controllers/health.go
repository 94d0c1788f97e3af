package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gigdesk/gigdesk-backend/api/responses"
	"github.com/gigdesk/gigdesk-backend/pkg/config"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/logger"
	"github.com/gigdesk/gigdesk-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GigDesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each dependency and reports per-component status.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		w.Header().Set("X-GigDesk-Env", cfg.App.Env)

		status := map[string]string{"db": "ok", "redis": "ok"}
		healthy := true

		if dbP == nil {
			status["db"] = "not configured"
			healthy = false
		} else if err := dbP.Ping(ctx); err != nil {
			status["db"] = "unavailable"
			healthy = false
			if logg != nil {
				logg.Error(ctx, "health.db_ping", err)
			}
		}

		if redisP == nil {
			status["redis"] = "not configured"
			healthy = false
		} else if err := redisP.Ping(ctx); err != nil {
			status["redis"] = "unavailable"
			healthy = false
			if logg != nil {
				logg.Error(ctx, "health.redis_ping", err)
			}
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, status)
	}
}
