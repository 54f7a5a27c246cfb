package engine

import "github.com/granadev/grana-go/internal/domain"

// InstallmentCount returns the number of monthly slices a transaction
// produces. A transaction flagged as installment with a total of 1 or less
// (or unset) is treated as a plain single transaction, never an error.
func InstallmentCount(t domain.Transaction) int {
	if t.IsInstallment && t.InstallmentsTotal >= 2 {
		return t.InstallmentsTotal
	}
	return 1
}

// ProjectSlices expands a transaction into its ordered slices: one per
// installment, each a calendar month after the previous (day clamped), each
// independently billing-dated. Non-installment transactions degenerate to a
// single slice carrying the full effective amount.
//
// Slices are cent-rounded and the remainder lands on the last slice, so the
// sum over all slices equals EffectiveAmount(t) exactly: 100.00 in 3 yields
// 33.33, 33.33, 33.34.
func ProjectSlices(t domain.Transaction, settings *domain.AccountSettings) []domain.InstallmentSlice {
	n := InstallmentCount(t)
	total := EffectiveAmount(t)

	slices := make([]domain.InstallmentSlice, 0, n)
	if n == 1 {
		slices = append(slices, domain.InstallmentSlice{
			Index:       1,
			NominalDate: t.Date,
			BillingDate: BillingDate(t.Date, settings),
			Amount:      total,
		})
		return slices
	}

	base := roundCents(total / float64(n))
	last := roundCents(total - base*float64(n-1))

	for i := 0; i < n; i++ {
		amount := base
		if i == n-1 {
			amount = last
		}
		nominal := AddMonths(t.Date, i)
		slices = append(slices, domain.InstallmentSlice{
			Index:       i + 1,
			NominalDate: nominal,
			BillingDate: BillingDate(nominal, settings),
			Amount:      amount,
		})
	}
	return slices
}
