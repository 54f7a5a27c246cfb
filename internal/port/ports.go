// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/granadev/grana-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// FinanceStore defines all data operations for the tracker state.
// Implemented by the SQLite adapter (or any other persistence layer).
//
// SnapshotVersion is a monotonically increasing counter bumped on every
// write. Derived-view caches embed it in their keys, so a stale entry is
// simply never looked up again after a mutation.
type FinanceStore interface {
	SnapshotVersion(ctx context.Context) (int64, error)

	// Transactions
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID string, tx *domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID string) error

	// Account settings
	ListAccountSettings(ctx context.Context, userID string) ([]domain.AccountSettings, error)
	GetAccountSettings(ctx context.Context, userID, accountID string) (*domain.AccountSettings, error)
	UpsertAccountSettings(ctx context.Context, userID string, s *domain.AccountSettings) (*domain.AccountSettings, error)
	DeleteAccountSettings(ctx context.Context, userID, accountID string) error

	// Subscriptions
	ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)
	GetSubscription(ctx context.Context, userID, subID string) (*domain.Subscription, error)
	CreateSubscription(ctx context.Context, userID string, sub *domain.Subscription) (*domain.Subscription, error)
	UpdateSubscription(ctx context.Context, userID string, sub *domain.Subscription) (*domain.Subscription, error)
	DeleteSubscription(ctx context.Context, userID, subID string) error

	// Budgets
	ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error)
	GetBudget(ctx context.Context, userID, budgetID string) (*domain.Budget, error)
	CreateBudget(ctx context.Context, userID string, b *domain.Budget) (*domain.Budget, error)
	UpdateBudget(ctx context.Context, userID string, b *domain.Budget) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error

	// Goals
	ListGoals(ctx context.Context, userID string) ([]domain.Goal, error)
	GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error)
	CreateGoal(ctx context.Context, userID string, g *domain.Goal) (*domain.Goal, error)
	UpdateGoal(ctx context.Context, userID string, g *domain.Goal) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error
}

// AuthStore defines all data operations for the authentication system.
type AuthStore interface {
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)

	// Refresh tokens
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// SnapshotPusher ships the local state to a remote backup endpoint. The
// scheduler calls it nightly; failures are retried and circuit-broken, never
// surfaced to interactive requests.
type SnapshotPusher interface {
	PushSnapshot(ctx context.Context, userID string, snap *domain.Snapshot) error
}
