package cron

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/logger"
	"github.com/gigdesk/gigdesk-backend/pkg/metrics"
)

const sweepBatchSize = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PurchaseExpirer expires overdue purchases in bounded batches.
type PurchaseExpirer interface {
	ExpireDueBatch(ctx context.Context, now time.Time, limit int) (int64, error)
}

// PurchaseExpiryJobParams wires the purchase expiry sweep.
type PurchaseExpiryJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Repo    func(tx *gorm.DB) PurchaseExpirer
	Metrics *metrics.CronJobMetrics
}

type purchaseExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	repo    func(tx *gorm.DB) PurchaseExpirer
	metrics *metrics.CronJobMetrics
	now     func() time.Time
}

// NewPurchaseExpiryJob marks overdue active purchases as expired.
func NewPurchaseExpiryJob(params PurchaseExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	if params.Repo == nil {
		return nil, errors.New("repo factory is required")
	}
	return &purchaseExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		repo:    params.Repo,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (j *purchaseExpiryJob) Name() string { return "purchase-expiry" }

func (j *purchaseExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var total int64
	for {
		var swept int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var txErr error
			swept, txErr = j.repo(tx).ExpireDueBatch(ctx, now, sweepBatchSize)
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
		"event":   "purchases_expired",
		"expired": total,
	}), "expired overdue purchases")
	return nil
}
