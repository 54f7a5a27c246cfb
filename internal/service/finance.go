// Package service orchestrates the engine over store snapshots. All date and
// amount logic lives in internal/engine; this layer adds validation,
// memoization and observability around it.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/infra/cache"
	"github.com/granadev/grana-go/internal/infra/observability"
	"github.com/granadev/grana-go/internal/port"
)

var finTracer = otel.Tracer("service/finance")

// FinanceService exposes tracker operations: entity CRUD plus the derived
// views (summaries, calendar, forecast, reports).
type FinanceService struct {
	store   port.FinanceStore
	metrics *observability.Metrics
	logger  *zap.Logger

	summaries port.Cache[domain.MonthSummary]
	days      port.Cache[domain.DayEntries]
	forecasts port.Cache[[]domain.ForecastPoint]
}

// NewFinanceService creates a finance service. Derived views are memoized
// with the given TTL; cache keys embed the store's snapshot version, so
// writes invalidate by key rotation rather than explicit purging.
func NewFinanceService(store port.FinanceStore, cacheTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *FinanceService {
	return &FinanceService{
		store:     store,
		metrics:   metrics,
		logger:    logger,
		summaries: cache.New[domain.MonthSummary](cacheTTL),
		days:      cache.New[domain.DayEntries](cacheTTL),
		forecasts: cache.New[[]domain.ForecastPoint](cacheTTL),
	}
}

// ============================================================
// Transactions
// ============================================================

func (s *FinanceService) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.ListTransactions")
	defer span.End()

	return s.store.ListTransactions(ctx, userID)
}

func (s *FinanceService) GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.GetTransaction")
	defer span.End()

	return s.store.GetTransaction(ctx, userID, txID)
}

func (s *FinanceService) CreateTransaction(ctx context.Context, userID string, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.CreateTransaction")
	defer span.End()

	if err := validateTransaction(tx); err != nil {
		return nil, err
	}
	normalizeTransaction(tx)
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	created, err := s.store.CreateTransaction(ctx, userID, tx)
	if err != nil {
		s.metrics.IncrStoreError("create_transaction")
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.String("user_id", userID),
		zap.String("transaction_id", created.ID),
		zap.Float64("amount", created.Amount),
	)
	return created, nil
}

func (s *FinanceService) UpdateTransaction(ctx context.Context, userID string, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.UpdateTransaction")
	defer span.End()

	if err := validateTransaction(tx); err != nil {
		return nil, err
	}
	normalizeTransaction(tx)

	return s.store.UpdateTransaction(ctx, userID, tx)
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, txID string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.DeleteTransaction")
	defer span.End()

	return s.store.DeleteTransaction(ctx, userID, txID)
}

func validateTransaction(tx *domain.Transaction) error {
	if tx.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if tx.Origin == "" {
		return &domain.ErrValidation{Field: "origin", Message: "required"}
	}
	if tx.Date.IsZero() {
		return &domain.ErrValidation{Field: "date", Message: "required"}
	}
	switch tx.Type {
	case domain.TypeIncome, domain.TypeExpense:
	default:
		return &domain.ErrValidation{Field: "type", Message: "must be income or expense"}
	}
	switch tx.PaymentMethod {
	case domain.PaymentCredit, domain.PaymentDebit, domain.PaymentPix, domain.PaymentCash, domain.PaymentNone:
	default:
		return &domain.ErrValidation{Field: "payment_method", Message: "unknown method"}
	}
	if tx.IsShared && tx.MyShareValue != nil && *tx.MyShareValue < 0 {
		return &domain.ErrValidation{Field: "my_share_value", Message: "must not be negative"}
	}
	return nil
}

// normalizeTransaction applies the defensive flag rules before persisting, so
// stored rows never carry contradictory installment or sharing state.
func normalizeTransaction(tx *domain.Transaction) {
	if tx.IsInstallment && tx.InstallmentsTotal < 2 {
		tx.IsInstallment = false
		tx.InstallmentsTotal = 0
	}
	if !tx.IsInstallment {
		tx.InstallmentsTotal = 0
	}
	if tx.IsShared && tx.MyShareValue == nil {
		tx.IsShared = false
	}
	if !tx.IsShared {
		tx.MyShareValue = nil
	}
	if tx.Category == "" {
		tx.Category = "outros"
	}
}

// ============================================================
// Account settings
// ============================================================

func (s *FinanceService) ListAccountSettings(ctx context.Context, userID string) ([]domain.AccountSettings, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.ListAccountSettings")
	defer span.End()

	return s.store.ListAccountSettings(ctx, userID)
}

func (s *FinanceService) UpsertAccountSettings(ctx context.Context, userID string, a *domain.AccountSettings) (*domain.AccountSettings, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.UpsertAccountSettings")
	defer span.End()

	if a.AccountID == "" {
		return nil, &domain.ErrValidation{Field: "account_id", Message: "required"}
	}
	if a.ClosingDay < 1 || a.ClosingDay > 31 {
		return nil, &domain.ErrValidation{Field: "closing_day", Message: "must be 1..31"}
	}
	if a.DueDay < 1 || a.DueDay > 31 {
		return nil, &domain.ErrValidation{Field: "due_day", Message: "must be 1..31"}
	}

	return s.store.UpsertAccountSettings(ctx, userID, a)
}

func (s *FinanceService) DeleteAccountSettings(ctx context.Context, userID, accountID string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.DeleteAccountSettings")
	defer span.End()

	return s.store.DeleteAccountSettings(ctx, userID, accountID)
}

// ============================================================
// Subscriptions
// ============================================================

func (s *FinanceService) ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.ListSubscriptions")
	defer span.End()

	return s.store.ListSubscriptions(ctx, userID)
}

func (s *FinanceService) CreateSubscription(ctx context.Context, userID string, sub *domain.Subscription) (*domain.Subscription, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.CreateSubscription")
	defer span.End()

	if err := validateSubscription(sub); err != nil {
		return nil, err
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	return s.store.CreateSubscription(ctx, userID, sub)
}

func (s *FinanceService) UpdateSubscription(ctx context.Context, userID string, sub *domain.Subscription) (*domain.Subscription, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.UpdateSubscription")
	defer span.End()

	if err := validateSubscription(sub); err != nil {
		return nil, err
	}

	return s.store.UpdateSubscription(ctx, userID, sub)
}

func (s *FinanceService) DeleteSubscription(ctx context.Context, userID, subID string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.DeleteSubscription")
	defer span.End()

	return s.store.DeleteSubscription(ctx, userID, subID)
}

func validateSubscription(sub *domain.Subscription) error {
	if sub.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if sub.Value <= 0 {
		return &domain.ErrValidation{Field: "value", Message: "must be positive"}
	}
	if sub.DueDay < 1 || sub.DueDay > 31 {
		return &domain.ErrValidation{Field: "due_day", Message: "must be 1..31"}
	}
	return nil
}

// ============================================================
// Budgets
// ============================================================

func (s *FinanceService) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.ListBudgets")
	defer span.End()

	return s.store.ListBudgets(ctx, userID)
}

func (s *FinanceService) CreateBudget(ctx context.Context, userID string, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.CreateBudget")
	defer span.End()

	if b.Category == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "required"}
	}
	if b.MonthlyLimit <= 0 {
		return nil, &domain.ErrValidation{Field: "monthly_limit", Message: "must be positive"}
	}
	if b.AlertThresholdPct == 0 {
		b.AlertThresholdPct = 80.0
	}
	b.IsActive = true
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	return s.store.CreateBudget(ctx, userID, b)
}

func (s *FinanceService) UpdateBudget(ctx context.Context, userID string, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.UpdateBudget")
	defer span.End()

	return s.store.UpdateBudget(ctx, userID, b)
}

func (s *FinanceService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.DeleteBudget")
	defer span.End()

	return s.store.DeleteBudget(ctx, userID, budgetID)
}

// ============================================================
// Goals
// ============================================================

func (s *FinanceService) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.ListGoals")
	defer span.End()

	return s.store.ListGoals(ctx, userID)
}

func (s *FinanceService) CreateGoal(ctx context.Context, userID string, g *domain.Goal) (*domain.Goal, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.CreateGoal")
	defer span.End()

	if g.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if g.TargetAmount <= 0 {
		return nil, &domain.ErrValidation{Field: "target_amount", Message: "must be positive"}
	}
	if g.SavedAmount < 0 {
		return nil, &domain.ErrValidation{Field: "saved_amount", Message: "must not be negative"}
	}
	if g.TargetDate != "" {
		if _, err := time.Parse("2006-01-02", g.TargetDate); err != nil {
			return nil, &domain.ErrValidation{Field: "target_date", Message: "must be YYYY-MM-DD"}
		}
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	return s.store.CreateGoal(ctx, userID, g)
}

func (s *FinanceService) UpdateGoal(ctx context.Context, userID string, g *domain.Goal) (*domain.Goal, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.UpdateGoal")
	defer span.End()

	return s.store.UpdateGoal(ctx, userID, g)
}

func (s *FinanceService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.DeleteGoal")
	defer span.End()

	return s.store.DeleteGoal(ctx, userID, goalID)
}
