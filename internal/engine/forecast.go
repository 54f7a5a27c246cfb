package engine

import (
	"time"

	"github.com/granadev/grana-go/internal/domain"
)

// forecastWindowMonths is the trailing window the statistical averages are
// computed over: exactly three calendar months ending at "now".
const forecastWindowMonths = 3

// Forecast projects the balance monthsAhead months into the future.
//
// Variable flow is estimated statistically: trailing-window averages of
// income and of non-installment expense (installments are excluded from the
// average because they are modeled exactly below), minus the fixed monthly
// subscription cost. When fewer than three months of the window contain any
// data the average divides over the months that do; with no data at all the
// averages are zero and the projection is flat; a brand-new account is not
// an error.
//
// Known installment obligations are then charged exactly, month by month,
// through the projector. The first point is the current month with the
// balance unmodified, fixing the start of the plotted curve.
func Forecast(
	txns []domain.Transaction,
	subs []domain.Subscription,
	settings []domain.AccountSettings,
	currentBalance float64,
	monthsAhead int,
	now time.Time,
) []domain.ForecastPoint {
	current := MonthOf(now)

	var incomeSum, variableExpenseSum float64
	monthsWithData := make(map[Month]bool)

	windowStart := current.Add(-(forecastWindowMonths - 1))
	for _, t := range txns {
		m := MonthOf(t.Date)
		if m.Before(windowStart) || current.Before(m) {
			continue
		}
		monthsWithData[m] = true

		switch {
		case t.Type == domain.TypeIncome:
			incomeSum += EffectiveAmount(t)
		case InstallmentCount(t) == 1:
			variableExpenseSum += EffectiveAmount(t)
		}
	}

	var avgIncome, avgVariableExpense float64
	if n := len(monthsWithData); n > 0 {
		avgIncome = incomeSum / float64(n)
		avgVariableExpense = variableExpenseSum / float64(n)
	}

	var subscriptionCost float64
	for _, sub := range subs {
		subscriptionCost += sub.Value
	}

	baseNetFlow := avgIncome - avgVariableExpense - subscriptionCost

	idx := SettingsIndex(settings)
	obligations := func(m Month) float64 {
		var total float64
		for _, t := range txns {
			if InstallmentCount(t) == 1 {
				continue
			}
			s := SettingsFor(t, idx)
			for _, sl := range ProjectSlices(t, s) {
				if m.Contains(sl.BillingDate) {
					total += sl.Amount
				}
			}
		}
		return total
	}

	points := make([]domain.ForecastPoint, 0, monthsAhead+1)
	points = append(points, domain.ForecastPoint{
		Month:            current.String(),
		ProjectedBalance: roundCents(currentBalance),
	})

	balance := currentBalance
	for i := 1; i <= monthsAhead; i++ {
		m := current.Add(i)
		balance += baseNetFlow - obligations(m)
		points = append(points, domain.ForecastPoint{
			Month:            m.String(),
			ProjectedBalance: roundCents(balance),
		})
	}
	return points
}
