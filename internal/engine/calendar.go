package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/granadev/grana-go/internal/domain"
)

// subscriptionNamespace seeds the deterministic IDs of synthesized
// subscription occurrences, so the same occurrence carries the same ID in
// every view that renders it.
var subscriptionNamespace = uuid.MustParse("9f2c1a7e-5d04-4c83-bb1a-3f6de8c90a11")

// OccurrenceID derives the stable ID of a subscription's occurrence in a
// given month (UUIDv5 over subscription id + year + month).
func OccurrenceID(subscriptionID string, year int, month time.Month) string {
	name := fmt.Sprintf("%s:%04d-%02d", subscriptionID, year, int(month))
	return uuid.NewSHA1(subscriptionNamespace, []byte(name)).String()
}

// EntriesForDay returns the three kinds of entries landing on one calendar
// day. The calendar is purchase-date-anchored: it shows what happened, not
// what is due, so matching is on nominal dates, never billing dates.
//
//   - Real: transactions created on that day.
//   - Ghosts: later occurrences of installment purchases (slice index 2..N);
//     the first occurrence is already in Real.
//   - Subscriptions: synthesized occurrences whose due day (clamped to the
//     month's length) equals the target day.
func EntriesForDay(txns []domain.Transaction, subs []domain.Subscription, year int, month time.Month, day int) domain.DayEntries {
	target := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	entries := domain.DayEntries{
		Date:          target.Format("2006-01-02"),
		Real:          []domain.Transaction{},
		Ghosts:        []domain.GhostEntry{},
		Subscriptions: []domain.SubscriptionOccurrence{},
	}

	for _, t := range txns {
		if SameDay(t.Date, target) {
			entries.Real = append(entries.Real, t)
			continue
		}
		if InstallmentCount(t) == 1 {
			continue
		}
		// Nominal occurrence dates come from the projector so the calendar
		// and the aggregator can never drift apart. Billing settings do not
		// influence nominal dates, so none are passed.
		for _, sl := range ProjectSlices(t, nil) {
			if sl.Index >= 2 && SameDay(sl.NominalDate, target) {
				entries.Ghosts = append(entries.Ghosts, domain.GhostEntry{
					Transaction:      t,
					InstallmentIndex: sl.Index,
					SliceAmount:      sl.Amount,
				})
				break
			}
		}
	}

	for _, sub := range subs {
		if ClampDay(year, month, sub.DueDay) != day {
			continue
		}
		entries.Subscriptions = append(entries.Subscriptions, domain.SubscriptionOccurrence{
			ID:             OccurrenceID(sub.ID, year, month),
			SubscriptionID: sub.ID,
			Name:           sub.Name,
			Value:          sub.Value,
			Date:           target,
		})
	}

	return entries
}
