package engine

import (
	"time"

	"github.com/granadev/grana-go/internal/domain"
)

// DefaultAccountSettings is the fallback cycle applied when a credit
// transaction's account has no configured settings. Keeping it as one named
// value means changing the default requires a single edit.
var DefaultAccountSettings = domain.AccountSettings{ClosingDay: 1, DueDay: 10}

// BillingDate computes the date a transaction actually affects cash flow.
// With no settings the impact is immediate (debit/pix/cash semantics). With
// settings, a purchase after the closing day rolls into next month's bill;
// a purchase in-cycle is due this month on the due day, unless the due day
// numerically precedes the closing day (e.g. closes 25th, due 5th), in which
// case the bill is conventionally due next month.
//
// The function never fails: due days beyond the target month's length clamp
// to its last day, and month 13 rolls into January of the following year.
func BillingDate(nominal time.Time, settings *domain.AccountSettings) time.Time {
	if settings == nil {
		return nominal
	}

	next := AddMonths(nominal, 1)

	if nominal.Day() > settings.ClosingDay {
		return DateOn(next.Year(), next.Month(), settings.DueDay)
	}
	if settings.DueDay < settings.ClosingDay {
		return DateOn(next.Year(), next.Month(), settings.DueDay)
	}
	return DateOn(nominal.Year(), nominal.Month(), settings.DueDay)
}

// SettingsIndex builds an account-name lookup over a settings snapshot.
func SettingsIndex(settings []domain.AccountSettings) map[string]domain.AccountSettings {
	idx := make(map[string]domain.AccountSettings, len(settings))
	for _, s := range settings {
		idx[s.AccountID] = s
	}
	return idx
}

// SettingsFor resolves the cycle configuration governing a transaction:
// nil for non-credit methods (immediate impact), the account's configured
// settings when present, and DefaultAccountSettings otherwise, so card
// spend on an unconfigured account is never silently treated as cash.
func SettingsFor(t domain.Transaction, idx map[string]domain.AccountSettings) *domain.AccountSettings {
	if t.PaymentMethod != domain.PaymentCredit {
		return nil
	}
	if s, ok := idx[t.Account]; ok {
		return &s
	}
	def := DefaultAccountSettings
	return &def
}
