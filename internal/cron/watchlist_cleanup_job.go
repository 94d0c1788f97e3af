package cron

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/logger"
	"github.com/gigdesk/gigdesk-backend/pkg/metrics"
)

// WatchlistPruner removes watchlist rows whose gig no longer exists
// or has left a watchable state.
type WatchlistPruner interface {
	DeleteStaleBatch(ctx context.Context, limit int) (int64, error)
}

// WatchlistCleanupJobParams wires the stale watchlist sweep.
type WatchlistCleanupJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Repo    func(tx *gorm.DB) WatchlistPruner
	Metrics *metrics.CronJobMetrics
}

type watchlistCleanupJob struct {
	logg    *logger.Logger
	db      txRunner
	repo    func(tx *gorm.DB) WatchlistPruner
	metrics *metrics.CronJobMetrics
}

// NewWatchlistCleanupJob removes watchlist entries whose gigs can no longer
// be claimed.
func NewWatchlistCleanupJob(params WatchlistCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	if params.Repo == nil {
		return nil, errors.New("repo factory is required")
	}
	return &watchlistCleanupJob{
		logg:    params.Logger,
		db:      params.DB,
		repo:    params.Repo,
		metrics: params.Metrics,
	}, nil
}

func (j *watchlistCleanupJob) Name() string { return "watchlist-cleanup" }

func (j *watchlistCleanupJob) Run(ctx context.Context) error {
	var total int64
	for {
		var swept int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var txErr error
			swept, txErr = j.repo(tx).DeleteStaleBatch(ctx, sweepBatchSize)
			return txErr
		})
		if err != nil {
			return err
		}
		total += swept
		if swept < sweepBatchSize {
			break
		}
	}

	j.metrics.AddSwept(j.Name(), total)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"event":   "watchlist_pruned",
		"removed": total,
	}), "pruned stale watchlist entries")
	return nil
}
