package cron

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/logger"
	"github.com/gigdesk/gigdesk-backend/pkg/metrics"
)

const defaultTokenRetention = 30 * 24 * time.Hour

// TokenPruner deletes expired and revoked auth tokens past retention.
type TokenPruner interface {
	DeleteDeadRefreshTokens(ctx context.Context, before time.Time, limit int) (int64, error)
	DeleteDeadResetTokens(ctx context.Context, before time.Time, limit int) (int64, error)
}

// TokenCleanupJobParams wires the dead-token sweep.
type TokenCleanupJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Repo      func(tx *gorm.DB) TokenPruner
	Metrics   *metrics.CronJobMetrics
	Retention time.Duration
}

type tokenCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      func(tx *gorm.DB) TokenPruner
	metrics   *metrics.CronJobMetrics
	retention time.Duration
	now       func() time.Time
}

// NewTokenCleanupJob deletes refresh tokens that expired or were revoked
// before the retention window, and reset tokens past their expiry.
func NewTokenCleanupJob(params TokenCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	if params.Repo == nil {
		return nil, errors.New("repo factory is required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultTokenRetention
	}
	return &tokenCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repo,
		metrics:   params.Metrics,
		retention: retention,
		now:       time.Now,
	}, nil
}

func (j *tokenCleanupJob) Name() string { return "token-cleanup" }

func (j *tokenCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)

	var errs []error
	refresh, err := j.sweep(ctx, func(ctx context.Context, repo TokenPruner, limit int) (int64, error) {
		return repo.DeleteDeadRefreshTokens(ctx, cutoff, limit)
	})
	if err != nil {
		errs = append(errs, err)
	}
	reset, err := j.sweep(ctx, func(ctx context.Context, repo TokenPruner, limit int) (int64, error) {
		return repo.DeleteDeadResetTokens(ctx, cutoff, limit)
	})
	if err != nil {
		errs = append(errs, err)
	}

	j.metrics.AddSwept(j.Name(), refresh+reset)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"event":          "tokens_pruned",
		"refresh_tokens": refresh,
		"reset_tokens":   reset,
	}), "pruned dead tokens")
	return multierr.Combine(errs...)
}

func (j *tokenCleanupJob) sweep(ctx context.Context, del func(ctx context.Context, repo TokenPruner, limit int) (int64, error)) (int64, error) {
	var total int64
	for {
		var swept int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var txErr error
			swept, txErr = del(ctx, j.repo(tx), sweepBatchSize)
			return txErr
		})
		if err != nil {
			return total, err
		}
		total += swept
		if swept < sweepBatchSize {
			return total, nil
		}
	}
}
