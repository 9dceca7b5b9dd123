package creditledger

import (
	"context"
	"fmt"
	"time"

	"github.com/pacificfuels/lcfs-backend/internal/organizations"
	"github.com/pacificfuels/lcfs-backend/pkg/logger"
	"github.com/pacificfuels/lcfs-backend/pkg/metrics"
	"github.com/pacificfuels/lcfs-backend/pkg/redis"
)

const (
	refreshJob       = "credit_ledger_refresh"
	refreshLockScope = "credit-ledger"
)

// Refresher rebuilds the credit ledger view for every organization. Each
// organization refresh is single-flighted through a redis lock so overlapping
// worker runs cannot rebuild the same view concurrently.
type Refresher struct {
	svc         Service
	orgsRepo    organizations.Repository
	locker      redis.Locker
	jobMetrics  *metrics.JobMetrics
	logg        *logger.Logger
	lockTTL     time.Duration
	maxAttempts int
	baseBackoff time.Duration
}

// RefresherOptions tune locking and retry behaviour; zero values fall back to
// defaults suited to the periodic worker.
type RefresherOptions struct {
	LockTTL     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
}

// NewRefresher wires the periodic view refresh job.
func NewRefresher(svc Service, orgsRepo organizations.Repository, locker redis.Locker, jobMetrics *metrics.JobMetrics, logg *logger.Logger, opts RefresherOptions) (*Refresher, error) {
	if svc == nil {
		return nil, fmt.Errorf("credit ledger service required")
	}
	if orgsRepo == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	if locker == nil {
		return nil, fmt.Errorf("redis locker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 500 * time.Millisecond
	}
	return &Refresher{
		svc:         svc,
		orgsRepo:    orgsRepo,
		locker:      locker,
		jobMetrics:  jobMetrics,
		logg:        logg,
		lockTTL:     opts.LockTTL,
		maxAttempts: opts.MaxAttempts,
		baseBackoff: opts.BaseBackoff,
	}, nil
}

// RunOnce refreshes every organization's view and records job metrics. A
// failed organization does not stop the sweep; the first error is returned
// after the remaining organizations are attempted.
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()
	orgs, err := r.orgsRepo.List(ctx)
	if err != nil {
		r.jobMetrics.IncFailure(refreshJob)
		return err
	}

	var firstErr error
	for _, org := range orgs {
		if err := r.RefreshOrganization(ctx, org.ID); err != nil {
			orgCtx := r.logg.WithOrgID(ctx, org.ID)
			r.logg.Error(orgCtx, "credit ledger refresh failed", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	r.jobMetrics.ObserveDuration(refreshJob, time.Since(start))
	if firstErr != nil {
		r.jobMetrics.IncFailure(refreshJob)
		return firstErr
	}
	r.jobMetrics.IncSuccess(refreshJob)
	return nil
}

// RefreshOrganization rebuilds one organization's view under its lock,
// retrying transient failures with exponential backoff. A held lock means
// another worker owns the refresh; that is success, not failure.
func (r *Refresher) RefreshOrganization(ctx context.Context, orgID int64) error {
	key := r.locker.LockKey(refreshLockScope, orgID)
	acquired, err := r.locker.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !acquired {
		return nil
	}
	defer func() {
		if err := r.locker.Del(context.WithoutCancel(ctx), key); err != nil {
			r.logg.Error(ctx, "release refresh lock", err)
		}
	}()

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, r.baseBackoff<<(attempt-1)); err != nil {
				return err
			}
		}
		if _, lastErr = r.svc.Rebuild(ctx, orgID); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
