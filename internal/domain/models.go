// Package domain defines the core business entities of the grana finance
// tracker. These models are independent of storage and transport and are the
// canonical shapes used by the engine, the services and the HTTP surface.
package domain

import "time"

// ============================================================
// Transactions
// ============================================================

// PaymentMethod identifies how a transaction was paid. Only PaymentCredit
// defers the cash impact to a billing date; every other method is immediate.
type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentPix    PaymentMethod = "pix"
	PaymentCash   PaymentMethod = "cash"
	PaymentNone   PaymentMethod = "n/a"
)

// TransactionType separates money coming in from money going out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Transaction represents a single financial event as recorded by the user or
// by the statement importer. Amount is the full face value; when the expense
// is shared, MyShareValue holds the user's own net contribution.
type Transaction struct {
	ID                string          `json:"id"`
	Amount            float64         `json:"amount"`
	Origin            string          `json:"origin"`
	Category          string          `json:"category"`
	Account           string          `json:"account"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	Date              time.Time       `json:"date"`
	Type              TransactionType `json:"type"`
	IsInstallment     bool            `json:"is_installment"`
	InstallmentsTotal int             `json:"installments_total,omitempty"`
	IsShared          bool            `json:"is_shared"`
	MyShareValue      *float64        `json:"my_share_value,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ============================================================
// Account settings (credit card closing/due configuration)
// ============================================================

// AccountSettings holds the statement cycle configuration of one
// credit-bearing account. Absence for an account means no card deferral is
// configured; callers apply the engine's documented fallback.
type AccountSettings struct {
	AccountID  string `json:"account_id"`
	ClosingDay int    `json:"closing_day"` // 1..31, statement closes on this day
	DueDay     int    `json:"due_day"`     // 1..31, bill is payable on this day
}

// ============================================================
// Subscriptions
// ============================================================

// Subscription is a recurring monthly obligation not tied to a persisted
// transaction. Occurrences are synthesized on demand and never stored.
type Subscription struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	DueDay int     `json:"due_day"` // clamped to the target month's length
}

// SubscriptionOccurrence is a read-only expense-shaped entry synthesized for
// a single month. Its ID is derived deterministically from the subscription
// and the month so repeated views agree.
type SubscriptionOccurrence struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	Name           string    `json:"name"`
	Value          float64   `json:"value"`
	Date           time.Time `json:"date"`
}

// ============================================================
// Budgets & Goals
// ============================================================

// Budget is a monthly spending limit for one category.
type Budget struct {
	ID                string  `json:"id"`
	Category          string  `json:"category"`
	MonthlyLimit      float64 `json:"monthly_limit"`
	AlertThresholdPct float64 `json:"alert_threshold_pct"`
	IsActive          bool    `json:"is_active"`
}

// BudgetStatus is a budget compared against the month's effective spending.
type BudgetStatus struct {
	Budget    Budget  `json:"budget"`
	Month     string  `json:"month"` // YYYY-MM
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
	UsagePct  float64 `json:"usage_pct"`
	Alert     bool    `json:"alert"`
}

// Goal is a savings target.
type Goal struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TargetAmount float64 `json:"target_amount"`
	SavedAmount  float64 `json:"saved_amount"`
	TargetDate   string  `json:"target_date,omitempty"` // YYYY-MM-DD
}

// GoalProgress is a goal with derived progress figures.
type GoalProgress struct {
	Goal          Goal    `json:"goal"`
	ProgressPct   float64 `json:"progress_pct"`
	Remaining     float64 `json:"remaining"`
	MonthsLeft    int     `json:"months_left,omitempty"`
	MonthlyNeeded float64 `json:"monthly_needed,omitempty"`
}

// ============================================================
// Engine output shapes
// ============================================================

// InstallmentSlice is one dated, valued portion of a transaction. A
// non-installment transaction produces exactly one slice with Index 1.
type InstallmentSlice struct {
	Index       int       `json:"index"` // 1..N
	NominalDate time.Time `json:"nominal_date"`
	BillingDate time.Time `json:"billing_date"`
	Amount      float64   `json:"amount"`
}

// MonthSummary aggregates one calendar month of cash flow, billing-dated.
type MonthSummary struct {
	Month       string  `json:"month"` // YYYY-MM
	Income      float64 `json:"income"`
	CashExpense float64 `json:"cash_expense"` // debit, pix, cash
	CardExpense float64 `json:"card_expense"` // credit bills due in the month
	Balance     float64 `json:"balance"`
}

// GhostEntry is a later installment occurrence shown on a calendar day that
// is not the original purchase date.
type GhostEntry struct {
	Transaction      Transaction `json:"transaction"`
	InstallmentIndex int         `json:"installment_index"` // 2..N
	SliceAmount      float64     `json:"slice_amount"`
}

// DayEntries are the three logically distinct kinds of entries that can land
// on one calendar day.
type DayEntries struct {
	Date          string                   `json:"date"` // YYYY-MM-DD
	Real          []Transaction            `json:"real"`
	Ghosts        []GhostEntry             `json:"ghosts"`
	Subscriptions []SubscriptionOccurrence `json:"subscriptions"`
}

// ForecastPoint is one month of the projected balance curve. The first point
// is the current month with the balance unmodified.
type ForecastPoint struct {
	Month            string  `json:"month"` // YYYY-MM
	ProjectedBalance float64 `json:"projected_balance"`
}

// RangeReport is a multi-month aggregation used by the report exporter. It is
// built from the same primitives as the dashboard so the two always agree.
type RangeReport struct {
	From   string         `json:"from"` // YYYY-MM
	To     string         `json:"to"`   // YYYY-MM
	Months []MonthSummary `json:"months"`
	Totals MonthSummary   `json:"totals"`
}

// ============================================================
// Statement import
// ============================================================

// ImportResult reports the outcome of a statement import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ============================================================
// Auth / Users
// ============================================================

// User is an authenticated tracker user.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
}

// RefreshToken is a stored, hashed refresh token.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// ============================================================
// Sync snapshot
// ============================================================

// Snapshot is the full local state of one user, shipped to the remote backup
// endpoint as a single document.
type Snapshot struct {
	Version       int64             `json:"version"`
	TakenAt       time.Time         `json:"taken_at"`
	Transactions  []Transaction     `json:"transactions"`
	Settings      []AccountSettings `json:"settings"`
	Subscriptions []Subscription    `json:"subscriptions"`
	Budgets       []Budget          `json:"budgets"`
	Goals         []Goal            `json:"goals"`
}

// ============================================================
// Operational metrics
// ============================================================

// OpsMetrics is returned by GET /v1/metrics/ops.
type OpsMetrics struct {
	TotalQueries int64   `json:"totalQueries"`
	ErrorRate    float64 `json:"errorRate"`
	CacheHitRate float64 `json:"cacheHitRate"`
	Period       string  `json:"period"`
}

// ============================================================
// Generic API wrappers
// ============================================================

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// SuccessResponse wraps a successful single-entity mutation.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
