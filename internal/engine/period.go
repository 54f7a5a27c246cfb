package engine

import "github.com/granadev/grana-go/internal/domain"

// MonthlySummary sums income, cash-basis expense and card-basis expense for
// one calendar month, billing-dated. Each transaction is expanded through
// ProjectSlices, so an N-installment purchase contributes to up to N distinct
// months and the sum of its contributions over all months equals its
// effective amount exactly.
func MonthlySummary(txns []domain.Transaction, settings []domain.AccountSettings, month Month) domain.MonthSummary {
	idx := SettingsIndex(settings)

	var income, cash, card float64
	for _, t := range txns {
		s := SettingsFor(t, idx)
		for _, sl := range ProjectSlices(t, s) {
			if !month.Contains(sl.BillingDate) {
				continue
			}
			switch {
			case t.Type == domain.TypeIncome:
				income += sl.Amount
			case t.PaymentMethod == domain.PaymentCredit:
				card += sl.Amount
			default:
				cash += sl.Amount
			}
		}
	}

	return domain.MonthSummary{
		Month:       month.String(),
		Income:      roundCents(income),
		CashExpense: roundCents(cash),
		CardExpense: roundCents(card),
		Balance:     roundCents(income - cash - card),
	}
}

// CategoryTotals sums billing-dated effective expense per category for one
// month. Budgets compare their limits against these totals.
func CategoryTotals(txns []domain.Transaction, settings []domain.AccountSettings, month Month) map[string]float64 {
	idx := SettingsIndex(settings)

	totals := make(map[string]float64)
	for _, t := range txns {
		if t.Type != domain.TypeExpense {
			continue
		}
		s := SettingsFor(t, idx)
		for _, sl := range ProjectSlices(t, s) {
			if month.Contains(sl.BillingDate) {
				totals[t.Category] = roundCents(totals[t.Category] + sl.Amount)
			}
		}
	}
	return totals
}

// MonthRange lists the months from from to to inclusive. An inverted range
// yields only the starting month.
func MonthRange(from, to Month) []Month {
	months := []Month{from}
	for m := from; m.Before(to); {
		m = m.Add(1)
		months = append(months, m)
	}
	return months
}
