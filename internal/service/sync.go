package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/infra/observability"
	"github.com/granadev/grana-go/internal/port"
)

// SyncService assembles full-state snapshots and ships them to the remote
// backup endpoint. Local SQLite stays the source of truth; a failed push is
// logged and retried on the next scheduler tick.
type SyncService struct {
	store   port.FinanceStore
	pusher  port.SnapshotPusher
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSyncService creates a sync service.
func NewSyncService(store port.FinanceStore, pusher port.SnapshotPusher, metrics *observability.Metrics, logger *zap.Logger) *SyncService {
	return &SyncService{store: store, pusher: pusher, metrics: metrics, logger: logger}
}

// BuildSnapshot reads all entities of one user at the current store version.
func (s *SyncService) BuildSnapshot(ctx context.Context, userID string) (*domain.Snapshot, error) {
	ctx, span := finTracer.Start(ctx, "SyncService.BuildSnapshot")
	defer span.End()

	version, err := s.store.SnapshotVersion(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.ListAccountSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.Snapshot{
		Version:       version,
		TakenAt:       time.Now().UTC(),
		Transactions:  txns,
		Settings:      settings,
		Subscriptions: subs,
		Budgets:       budgets,
		Goals:         goals,
	}, nil
}

// PushBackup builds and uploads one user's snapshot.
func (s *SyncService) PushBackup(ctx context.Context, userID string) error {
	ctx, span := finTracer.Start(ctx, "SyncService.PushBackup")
	defer span.End()

	snap, err := s.BuildSnapshot(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.pusher.PushSnapshot(ctx, userID, snap); err != nil {
		s.metrics.IncrExternalError("syncapi")
		s.logger.Warn("snapshot push failed",
			zap.String("user_id", userID),
			zap.Int64("version", snap.Version),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("snapshot pushed",
		zap.String("user_id", userID),
		zap.Int64("version", snap.Version),
		zap.Int("transactions", len(snap.Transactions)),
	)
	return nil
}
