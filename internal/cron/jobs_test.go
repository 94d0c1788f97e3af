package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/logger"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakePurchaseExpirer struct {
	batches []int64
	calls   int
	lastNow time.Time
	err     error
}

func (f *fakePurchaseExpirer) ExpireDueBatch(ctx context.Context, now time.Time, limit int) (int64, error) {
	f.calls++
	f.lastNow = now
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	swept := f.batches[0]
	f.batches = f.batches[1:]
	return swept, nil
}

func TestPurchaseExpiryJobSweepsUntilDrained(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakePurchaseExpirer{batches: []int64{sweepBatchSize, 7}}
	jobIface, err := NewPurchaseExpiryJob(PurchaseExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     fakeTxRunner{},
		Repo:   func(*gorm.DB) PurchaseExpirer { return repo },
	})
	if err != nil {
		t.Fatalf("NewPurchaseExpiryJob: %v", err)
	}
	job := jobIface.(*purchaseExpiryJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("expected two batches, got %d", repo.calls)
	}
	if !repo.lastNow.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, repo.lastNow)
	}
}

func TestPurchaseExpiryJobPropagatesErrors(t *testing.T) {
	repo := &fakePurchaseExpirer{err: errors.New("boom")}
	jobIface, err := NewPurchaseExpiryJob(PurchaseExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     fakeTxRunner{},
		Repo:   func(*gorm.DB) PurchaseExpirer { return repo },
	})
	if err != nil {
		t.Fatalf("NewPurchaseExpiryJob: %v", err)
	}

	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeWatchlistPruner struct {
	removed int64
	calls   int
}

func (f *fakeWatchlistPruner) DeleteStaleBatch(ctx context.Context, limit int) (int64, error) {
	f.calls++
	return f.removed, nil
}

func TestWatchlistCleanupJobRunsSingleBatchWhenDrained(t *testing.T) {
	repo := &fakeWatchlistPruner{removed: 3}
	job, err := NewWatchlistCleanupJob(WatchlistCleanupJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     fakeTxRunner{},
		Repo:   func(*gorm.DB) WatchlistPruner { return repo },
	})
	if err != nil {
		t.Fatalf("NewWatchlistCleanupJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected one batch, got %d", repo.calls)
	}
}

type fakeTokenPruner struct {
	refreshCutoff time.Time
	resetCutoff   time.Time
	refreshErr    error
	resetErr      error
	resetCalls    int
}

func (f *fakeTokenPruner) DeleteDeadRefreshTokens(ctx context.Context, before time.Time, limit int) (int64, error) {
	f.refreshCutoff = before
	if f.refreshErr != nil {
		return 0, f.refreshErr
	}
	return 5, nil
}

func (f *fakeTokenPruner) DeleteDeadResetTokens(ctx context.Context, before time.Time, limit int) (int64, error) {
	f.resetCalls++
	f.resetCutoff = before
	if f.resetErr != nil {
		return 0, f.resetErr
	}
	return 2, nil
}

func TestTokenCleanupJobUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	retention := 10 * 24 * time.Hour
	repo := &fakeTokenPruner{}
	jobIface, err := NewTokenCleanupJob(TokenCleanupJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		DB:        fakeTxRunner{},
		Repo:      func(*gorm.DB) TokenPruner { return repo },
		Retention: retention,
	})
	if err != nil {
		t.Fatalf("NewTokenCleanupJob: %v", err)
	}
	job := jobIface.(*tokenCleanupJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-retention)
	if !repo.refreshCutoff.Equal(expected) {
		t.Fatalf("expected refresh cutoff %s, got %s", expected, repo.refreshCutoff)
	}
	if !repo.resetCutoff.Equal(expected) {
		t.Fatalf("expected reset cutoff %s, got %s", expected, repo.resetCutoff)
	}
}

func TestTokenCleanupJobSweepsResetTokensDespiteRefreshFailure(t *testing.T) {
	repo := &fakeTokenPruner{refreshErr: errors.New("boom")}
	job, err := NewTokenCleanupJob(TokenCleanupJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     fakeTxRunner{},
		Repo:   func(*gorm.DB) TokenPruner { return repo },
	})
	if err != nil {
		t.Fatalf("NewTokenCleanupJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if repo.resetCalls != 1 {
		t.Fatalf("expected reset sweep to run, got %d calls", repo.resetCalls)
	}
}
