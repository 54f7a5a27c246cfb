package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/engine"
	"github.com/granadev/grana-go/internal/infra/cache"
)

// reportWorkers bounds the per-month parallelism of range reports.
const reportWorkers = 4

// snapshot is an immutable read of everything the engine consumes, taken at
// one store version.
type snapshot struct {
	version  int64
	txns     []domain.Transaction
	settings []domain.AccountSettings
	subs     []domain.Subscription
}

func (s *FinanceService) loadSnapshot(ctx context.Context, userID string) (*snapshot, error) {
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
	return &snapshot{version: version, txns: txns, settings: settings, subs: subs}, nil
}

// ============================================================
// Month summary
// ============================================================

func (s *FinanceService) MonthSummary(ctx context.Context, userID, monthStr string) (*domain.MonthSummary, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.MonthSummary")
	defer span.End()
	span.SetAttributes(attribute.String("month", monthStr))

	month, err := engine.ParseMonth(monthStr)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "month", Message: "must be YYYY-MM"}
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordQueryDuration("month_summary", time.Since(start))
	}()

	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := cache.Key(snap.version, "summary", userID, month.String())
	if cached, ok := s.summaries.Get(key); ok {
		s.metrics.IncrCacheHit("summaries")
		return &cached, nil
	}
	s.metrics.IncrCacheMiss("summaries")

	summary := engine.MonthlySummary(snap.txns, snap.settings, month)
	s.summaries.Set(key, summary)
	return &summary, nil
}

// ============================================================
// Calendar
// ============================================================

func (s *FinanceService) CalendarDay(ctx context.Context, userID, dateStr string) (*domain.DayEntries, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.CalendarDay")
	defer span.End()
	span.SetAttributes(attribute.String("date", dateStr))

	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordQueryDuration("calendar_day", time.Since(start))
	}()

	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := cache.Key(snap.version, "day", userID, dateStr)
	if cached, ok := s.days.Get(key); ok {
		s.metrics.IncrCacheHit("days")
		return &cached, nil
	}
	s.metrics.IncrCacheMiss("days")

	entries := engine.EntriesForDay(snap.txns, snap.subs, day.Year(), day.Month(), day.Day())
	s.days.Set(key, entries)
	return &entries, nil
}

// ============================================================
// Forecast
// ============================================================

func (s *FinanceService) Forecast(ctx context.Context, userID string, currentBalance float64, monthsAhead int) ([]domain.ForecastPoint, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.Forecast")
	defer span.End()
	span.SetAttributes(attribute.Int("months_ahead", monthsAhead))

	if monthsAhead < 0 || monthsAhead > 60 {
		return nil, &domain.ErrValidation{Field: "months", Message: "must be 0..60"}
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordQueryDuration("forecast", time.Since(start))
	}()

	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	key := cache.Key(snap.version, "forecast", userID,
		strconv.Itoa(monthsAhead),
		strconv.FormatFloat(currentBalance, 'f', 2, 64),
		engine.MonthOf(now).String(),
	)
	if cached, ok := s.forecasts.Get(key); ok {
		s.metrics.IncrCacheHit("forecasts")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("forecasts")

	points := engine.Forecast(snap.txns, snap.subs, snap.settings, currentBalance, monthsAhead, now)
	s.forecasts.Set(key, points)
	return points, nil
}

// ============================================================
// Installment plan
// ============================================================

// InstallmentPlan returns the full dated slice schedule of one transaction.
func (s *FinanceService) InstallmentPlan(ctx context.Context, userID, txID string) ([]domain.InstallmentSlice, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.InstallmentPlan")
	defer span.End()

	tx, err := s.store.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.ListAccountSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := engine.SettingsIndex(settings)
	return engine.ProjectSlices(*tx, engine.SettingsFor(*tx, idx)), nil
}

// ============================================================
// Budgets
// ============================================================

func (s *FinanceService) BudgetStatuses(ctx context.Context, userID, monthStr string) ([]domain.BudgetStatus, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.BudgetStatuses")
	defer span.End()
	span.SetAttributes(attribute.String("month", monthStr))

	month, err := engine.ParseMonth(monthStr)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "month", Message: "must be YYYY-MM"}
	}

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := engine.CategoryTotals(snap.txns, snap.settings, month)

	statuses := make([]domain.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		if !b.IsActive {
			continue
		}
		spent := totals[b.Category]
		usage := 0.0
		if b.MonthlyLimit > 0 {
			usage = math.Round(spent/b.MonthlyLimit*10000) / 100
		}
		statuses = append(statuses, domain.BudgetStatus{
			Budget:    b,
			Month:     month.String(),
			Spent:     spent,
			Remaining: math.Round((b.MonthlyLimit-spent)*100) / 100,
			UsagePct:  usage,
			Alert:     usage >= b.AlertThresholdPct,
		})
	}
	return statuses, nil
}

// ============================================================
// Goals
// ============================================================

func (s *FinanceService) GoalProgress(ctx context.Context, userID string) ([]domain.GoalProgress, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.GoalProgress")
	defer span.End()

	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	progress := make([]domain.GoalProgress, 0, len(goals))
	for _, g := range goals {
		p := domain.GoalProgress{
			Goal:      g,
			Remaining: math.Round((g.TargetAmount-g.SavedAmount)*100) / 100,
		}
		if p.Remaining < 0 {
			p.Remaining = 0
		}
		if g.TargetAmount > 0 {
			p.ProgressPct = math.Round(g.SavedAmount/g.TargetAmount*10000) / 100
		}
		if g.TargetDate != "" {
			if target, err := time.Parse("2006-01-02", g.TargetDate); err == nil {
				months := engine.MonthDiff(now, target)
				if months > 0 && p.Remaining > 0 {
					p.MonthsLeft = months
					p.MonthlyNeeded = math.Round(p.Remaining/float64(months)*100) / 100
				}
			}
		}
		progress = append(progress, p)
	}
	return progress, nil
}

// ============================================================
// Range report
// ============================================================

// RangeReport aggregates month-by-month summaries over [from, to] with
// bounded parallelism. Each month runs the same aggregation as the dashboard
// summary, so report and dashboard always agree.
func (s *FinanceService) RangeReport(ctx context.Context, userID, fromStr, toStr string) (*domain.RangeReport, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.RangeReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("from", fromStr),
		attribute.String("to", toStr),
	)

	from, err := engine.ParseMonth(fromStr)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "from", Message: "must be YYYY-MM"}
	}
	to, err := engine.ParseMonth(toStr)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "to", Message: "must be YYYY-MM"}
	}
	if to.Before(from) {
		return nil, &domain.ErrValidation{Field: "to", Message: "must not precede from"}
	}
	months := engine.MonthRange(from, to)
	if len(months) > 120 {
		return nil, &domain.ErrValidation{Field: "to", Message: "range must not exceed 120 months"}
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordQueryDuration("range_report", time.Since(start))
	}()

	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.MonthSummary, len(months))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(reportWorkers)
	for i, m := range months {
		i, m := i, m
		g.Go(func() error {
			summaries[i] = engine.MonthlySummary(snap.txns, snap.settings, m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := domain.MonthSummary{
		Month: fmt.Sprintf("%s..%s", from.String(), to.String()),
	}
	for _, m := range summaries {
		totals.Income += m.Income
		totals.CashExpense += m.CashExpense
		totals.CardExpense += m.CardExpense
	}
	totals.Income = math.Round(totals.Income*100) / 100
	totals.CashExpense = math.Round(totals.CashExpense*100) / 100
	totals.CardExpense = math.Round(totals.CardExpense*100) / 100
	totals.Balance = math.Round((totals.Income-totals.CashExpense-totals.CardExpense)*100) / 100

	return &domain.RangeReport{
		From:   from.String(),
		To:     to.String(),
		Months: summaries,
		Totals: totals,
	}, nil
}
