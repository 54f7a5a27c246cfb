package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
)

// Store implements port.FinanceStore on top of SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore creates a Store over an opened database.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// SnapshotVersion returns the current write counter. Every mutation bumps it,
// which retires all derived-view cache entries keyed on the old value.
func (s *Store) SnapshotVersion(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'snapshot_version'`).Scan(&v)
	if err != nil {
		return 0, s.storeErr("snapshot_version", err)
	}
	return v, nil
}

func bumpVersion(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE meta SET value = value + 1 WHERE key = 'snapshot_version'`)
	return err
}

func (s *Store) storeErr(op string, err error) error {
	s.logger.Error("store operation failed", zap.String("op", op), zap.Error(err))
	return &domain.ErrStoreUnavailable{Op: op, Err: err}
}

// inTx runs fn inside a transaction and bumps the snapshot version when it
// succeeds.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.storeErr(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return err
		}
		return s.storeErr(op, err)
	}
	if err := bumpVersion(ctx, tx); err != nil {
		return s.storeErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return s.storeErr(op, err)
	}
	return nil
}

// ------------------------------------------------------------
// Transactions
// ------------------------------------------------------------

const txColumns = `id, amount, origin, category, account, payment_method, date, type,
	is_installment, installments_total, is_shared, my_share_value, tags, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (*domain.Transaction, error) {
	var t domain.Transaction
	var dateStr, createdStr, tagsJSON string
	var share sql.NullFloat64
	err := row.Scan(&t.ID, &t.Amount, &t.Origin, &t.Category, &t.Account,
		&t.PaymentMethod, &dateStr, &t.Type, &t.IsInstallment,
		&t.InstallmentsTotal, &t.IsShared, &share, &tagsJSON, &createdStr)
	if err != nil {
		return nil, err
	}
	if t.Date, err = time.Parse(time.RFC3339, dateStr); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return nil, err
	}
	if share.Valid {
		v := share.Float64
		t.MyShareValue = &v
	}
	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? ORDER BY date, created_at`,
		userID)
	if err != nil {
		return nil, s.storeErr("list_transactions", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, s.storeErr("list_transactions", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("list_transactions", err)
	}
	return txns, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND id = ?`,
		userID, txID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	if err != nil {
		return nil, s.storeErr("get_transaction", err)
	}
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, userID string, t *domain.Transaction) (*domain.Transaction, error) {
	tags, err := json.Marshal(tagsOrEmpty(t.Tags))
	if err != nil {
		return nil, s.storeErr("create_transaction", err)
	}
	err = s.inTx(ctx, "create_transaction", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, user_id, amount, origin, category, account,
				payment_method, date, type, is_installment, installments_total,
				is_shared, my_share_value, tags, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, userID, t.Amount, t.Origin, t.Category, t.Account,
			t.PaymentMethod, t.Date.Format(time.RFC3339), t.Type, t.IsInstallment,
			t.InstallmentsTotal, t.IsShared, shareOrNull(t.MyShareValue),
			string(tags), t.CreatedAt.Format(time.RFC3339))
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, userID string, t *domain.Transaction) (*domain.Transaction, error) {
	tags, err := json.Marshal(tagsOrEmpty(t.Tags))
	if err != nil {
		return nil, s.storeErr("update_transaction", err)
	}
	err = s.inTx(ctx, "update_transaction", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET amount = ?, origin = ?, category = ?, account = ?,
				payment_method = ?, date = ?, type = ?, is_installment = ?,
				installments_total = ?, is_shared = ?, my_share_value = ?, tags = ?
			 WHERE user_id = ? AND id = ?`,
			t.Amount, t.Origin, t.Category, t.Account,
			t.PaymentMethod, t.Date.Format(time.RFC3339), t.Type, t.IsInstallment,
			t.InstallmentsTotal, t.IsShared, shareOrNull(t.MyShareValue),
			string(tags), userID, t.ID)
		if err != nil {
			return err
		}
		return requireRow(res, "transaction", t.ID)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, txID string) error {
	return s.inTx(ctx, "delete_transaction", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, txID)
		if err != nil {
			return err
		}
		return requireRow(res, "transaction", txID)
	})
}

// ------------------------------------------------------------
// Account settings
// ------------------------------------------------------------

func (s *Store) ListAccountSettings(ctx context.Context, userID string) ([]domain.AccountSettings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, closing_day, due_day FROM account_settings
		 WHERE user_id = ? ORDER BY account_id`, userID)
	if err != nil {
		return nil, s.storeErr("list_account_settings", err)
	}
	defer rows.Close()

	settings := []domain.AccountSettings{}
	for rows.Next() {
		var a domain.AccountSettings
		if err := rows.Scan(&a.AccountID, &a.ClosingDay, &a.DueDay); err != nil {
			return nil, s.storeErr("list_account_settings", err)
		}
		settings = append(settings, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("list_account_settings", err)
	}
	return settings, nil
}

func (s *Store) GetAccountSettings(ctx context.Context, userID, accountID string) (*domain.AccountSettings, error) {
	var a domain.AccountSettings
	err := s.db.QueryRowContext(ctx,
		`SELECT account_id, closing_day, due_day FROM account_settings
		 WHERE user_id = ? AND account_id = ?`, userID, accountID).
		Scan(&a.AccountID, &a.ClosingDay, &a.DueDay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "account settings", ID: accountID}
	}
	if err != nil {
		return nil, s.storeErr("get_account_settings", err)
	}
	return &a, nil
}

func (s *Store) UpsertAccountSettings(ctx context.Context, userID string, a *domain.AccountSettings) (*domain.AccountSettings, error) {
	err := s.inTx(ctx, "upsert_account_settings", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO account_settings (user_id, account_id, closing_day, due_day)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (user_id, account_id)
			 DO UPDATE SET closing_day = excluded.closing_day, due_day = excluded.due_day`,
			userID, a.AccountID, a.ClosingDay, a.DueDay)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) DeleteAccountSettings(ctx context.Context, userID, accountID string) error {
	return s.inTx(ctx, "delete_account_settings", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM account_settings WHERE user_id = ? AND account_id = ?`,
			userID, accountID)
		if err != nil {
			return err
		}
		return requireRow(res, "account settings", accountID)
	})
}

// ------------------------------------------------------------
// Subscriptions
// ------------------------------------------------------------

func (s *Store) ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, value, due_day FROM subscriptions
		 WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, s.storeErr("list_subscriptions", err)
	}
	defer rows.Close()

	subs := []domain.Subscription{}
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Value, &sub.DueDay); err != nil {
			return nil, s.storeErr("list_subscriptions", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("list_subscriptions", err)
	}
	return subs, nil
}

func (s *Store) GetSubscription(ctx context.Context, userID, subID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, value, due_day FROM subscriptions
		 WHERE user_id = ? AND id = ?`, userID, subID).
		Scan(&sub.ID, &sub.Name, &sub.Value, &sub.DueDay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "subscription", ID: subID}
	}
	if err != nil {
		return nil, s.storeErr("get_subscription", err)
	}
	return &sub, nil
}

func (s *Store) CreateSubscription(ctx context.Context, userID string, sub *domain.Subscription) (*domain.Subscription, error) {
	err := s.inTx(ctx, "create_subscription", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO subscriptions (id, user_id, name, value, due_day)
			 VALUES (?, ?, ?, ?, ?)`,
			sub.ID, userID, sub.Name, sub.Value, sub.DueDay)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, userID string, sub *domain.Subscription) (*domain.Subscription, error) {
	err := s.inTx(ctx, "update_subscription", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET name = ?, value = ?, due_day = ?
			 WHERE user_id = ? AND id = ?`,
			sub.Name, sub.Value, sub.DueDay, userID, sub.ID)
		if err != nil {
			return err
		}
		return requireRow(res, "subscription", sub.ID)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) DeleteSubscription(ctx context.Context, userID, subID string) error {
	return s.inTx(ctx, "delete_subscription", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM subscriptions WHERE user_id = ? AND id = ?`, userID, subID)
		if err != nil {
			return err
		}
		return requireRow(res, "subscription", subID)
	})
}

// ------------------------------------------------------------
// Budgets
// ------------------------------------------------------------

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, monthly_limit, alert_threshold_pct, is_active
		 FROM budgets WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, s.storeErr("list_budgets", err)
	}
	defer rows.Close()

	budgets := []domain.Budget{}
	for rows.Next() {
		var b domain.Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.MonthlyLimit, &b.AlertThresholdPct, &b.IsActive); err != nil {
			return nil, s.storeErr("list_budgets", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("list_budgets", err)
	}
	return budgets, nil
}

func (s *Store) GetBudget(ctx context.Context, userID, budgetID string) (*domain.Budget, error) {
	var b domain.Budget
	err := s.db.QueryRowContext(ctx,
		`SELECT id, category, monthly_limit, alert_threshold_pct, is_active
		 FROM budgets WHERE user_id = ? AND id = ?`, userID, budgetID).
		Scan(&b.ID, &b.Category, &b.MonthlyLimit, &b.AlertThresholdPct, &b.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "budget", ID: budgetID}
	}
	if err != nil {
		return nil, s.storeErr("get_budget", err)
	}
	return &b, nil
}

func (s *Store) CreateBudget(ctx context.Context, userID string, b *domain.Budget) (*domain.Budget, error) {
	err := s.inTx(ctx, "create_budget", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, user_id, category, monthly_limit, alert_threshold_pct, is_active)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, userID, b.Category, b.MonthlyLimit, b.AlertThresholdPct, b.IsActive)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) UpdateBudget(ctx context.Context, userID string, b *domain.Budget) (*domain.Budget, error) {
	err := s.inTx(ctx, "update_budget", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE budgets SET category = ?, monthly_limit = ?, alert_threshold_pct = ?, is_active = ?
			 WHERE user_id = ? AND id = ?`,
			b.Category, b.MonthlyLimit, b.AlertThresholdPct, b.IsActive, userID, b.ID)
		if err != nil {
			return err
		}
		return requireRow(res, "budget", b.ID)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	return s.inTx(ctx, "delete_budget", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM budgets WHERE user_id = ? AND id = ?`, userID, budgetID)
		if err != nil {
			return err
		}
		return requireRow(res, "budget", budgetID)
	})
}

// ------------------------------------------------------------
// Goals
// ------------------------------------------------------------

func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, target_amount, saved_amount, COALESCE(target_date, '')
		 FROM goals WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, s.storeErr("list_goals", err)
	}
	defer rows.Close()

	goals := []domain.Goal{}
	for rows.Next() {
		var g domain.Goal
		if err := rows.Scan(&g.ID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.TargetDate); err != nil {
			return nil, s.storeErr("list_goals", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("list_goals", err)
	}
	return goals, nil
}

func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	var g domain.Goal
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, target_amount, saved_amount, COALESCE(target_date, '')
		 FROM goals WHERE user_id = ? AND id = ?`, userID, goalID).
		Scan(&g.ID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.TargetDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "goal", ID: goalID}
	}
	if err != nil {
		return nil, s.storeErr("get_goal", err)
	}
	return &g, nil
}

func (s *Store) CreateGoal(ctx context.Context, userID string, g *domain.Goal) (*domain.Goal, error) {
	err := s.inTx(ctx, "create_goal", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO goals (id, user_id, name, target_amount, saved_amount, target_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, userID, g.Name, g.TargetAmount, g.SavedAmount, nullIfEmpty(g.TargetDate))
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, userID string, g *domain.Goal) (*domain.Goal, error) {
	err := s.inTx(ctx, "update_goal", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE goals SET name = ?, target_amount = ?, saved_amount = ?, target_date = ?
			 WHERE user_id = ? AND id = ?`,
			g.Name, g.TargetAmount, g.SavedAmount, nullIfEmpty(g.TargetDate), userID, g.ID)
		if err != nil {
			return err
		}
		return requireRow(res, "goal", g.ID)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	return s.inTx(ctx, "delete_goal", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, goalID)
		if err != nil {
			return err
		}
		return requireRow(res, "goal", goalID)
	})
}

// ------------------------------------------------------------
// helpers
// ------------------------------------------------------------

func requireRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return nil
}

func shareOrNull(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
