package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/engine"
	"github.com/granadev/grana-go/internal/port"
	"github.com/granadev/grana-go/internal/service"
)

const jobTimeout = 5 * time.Minute

// BackupJob pushes every user's snapshot to the remote backup endpoint.
type BackupJob struct {
	users  port.AuthStore
	sync   *service.SyncService
	logger *zap.Logger
}

// NewBackupJob creates the nightly backup job.
func NewBackupJob(users port.AuthStore, sync *service.SyncService, logger *zap.Logger) *BackupJob {
	return &BackupJob{users: users, sync: sync, logger: logger}
}

func (j *BackupJob) Name() string { return "snapshot-backup" }

// Run pushes one snapshot per user. A failing user does not abort the rest;
// the circuit breaker inside the pusher handles a dead endpoint.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	ids, err := j.users.ListUserIDs(ctx)
	if err != nil {
		return err
	}

	var lastErr error
	for _, userID := range ids {
		if err := j.sync.PushBackup(ctx, userID); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// WarmupJob precomputes the current month's summary per user so the first
// dashboard load after a quiet period hits the cache.
type WarmupJob struct {
	users   port.AuthStore
	finance *service.FinanceService
	logger  *zap.Logger
}

// NewWarmupJob creates the summary warmup job.
func NewWarmupJob(users port.AuthStore, finance *service.FinanceService, logger *zap.Logger) *WarmupJob {
	return &WarmupJob{users: users, finance: finance, logger: logger}
}

func (j *WarmupJob) Name() string { return "summary-warmup" }

func (j *WarmupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	ids, err := j.users.ListUserIDs(ctx)
	if err != nil {
		return err
	}

	month := engine.MonthOf(time.Now().UTC()).String()
	var lastErr error
	for _, userID := range ids {
		if _, err := j.finance.MonthSummary(ctx, userID, month); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
