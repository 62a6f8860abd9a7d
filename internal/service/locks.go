package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RunLock serializes reconciliation passes per user. The matcher and
// processor read-then-write without row locking, so two concurrent runs over
// the same user's data would race; a redis SET NX with TTL keeps invocations
// (cron, manual trigger, backfill) mutually exclusive across processes.
type RunLock struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRunLock creates a new redis-backed run lock
func NewRunLock(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RunLock {
	return &RunLock{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire attempts to take the per-user lock. It returns a release func and
// whether the lock was obtained; a held lock is not an error.
func (l *RunLock) Acquire(ctx context.Context, userID uuid.UUID) (func(), bool, error) {
	if l == nil || l.rdb == nil {
		// No redis configured; single-process deployments run unlocked.
		return func() {}, true, nil
	}

	key := "reconcile:run:" + userID.String()
	ok, err := l.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		l.logger.Warn("Reconciliation already running for user",
			zap.String("user_id", userID.String()),
		)
		return nil, false, nil
	}

	release := func() {
		if err := l.rdb.Del(context.Background(), key).Err(); err != nil {
			l.logger.Warn("Failed to release run lock", zap.Error(err))
		}
	}
	return release, true, nil
}
