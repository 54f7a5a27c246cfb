package engine_test

import (
	"math"
	"testing"
	"time"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/engine"
)

func TestProjectSlices_TwelveMonthsCash(t *testing.T) {
	// 1200 in 12 with no credit settings: 12 slices of exactly 100.00,
	// nominal dates Jan 15 .. Dec 15, billing equal to nominal.
	tx := domain.Transaction{
		ID:                "tv",
		Amount:            1200,
		Date:              date(2024, time.January, 15),
		Type:              domain.TypeExpense,
		PaymentMethod:     domain.PaymentCash,
		IsInstallment:     true,
		InstallmentsTotal: 12,
	}

	slices := engine.ProjectSlices(tx, nil)
	if len(slices) != 12 {
		t.Fatalf("expected 12 slices, got %d", len(slices))
	}

	for i, sl := range slices {
		if sl.Index != i+1 {
			t.Errorf("slice %d: expected index %d, got %d", i, i+1, sl.Index)
		}
		if sl.Amount != 100 {
			t.Errorf("slice %d: expected 100.00, got %.2f", i, sl.Amount)
		}
		want := date(2024, time.Month(i+1), 15)
		if !sl.NominalDate.Equal(want) {
			t.Errorf("slice %d: expected nominal %v, got %v", i, want, sl.NominalDate)
		}
		if !sl.BillingDate.Equal(sl.NominalDate) {
			t.Errorf("slice %d: expected billing == nominal without settings", i)
		}
	}
}

func TestProjectSlices_NonInstallmentSingleSlice(t *testing.T) {
	settings := &domain.AccountSettings{ClosingDay: 20, DueDay: 28}
	tx := domain.Transaction{
		Amount:        89.90,
		Date:          date(2024, time.March, 22),
		Type:          domain.TypeExpense,
		PaymentMethod: domain.PaymentCredit,
	}

	slices := engine.ProjectSlices(tx, settings)
	if len(slices) != 1 {
		t.Fatalf("expected a single slice, got %d", len(slices))
	}
	sl := slices[0]
	if sl.Index != 1 || sl.Amount != 89.90 {
		t.Errorf("unexpected slice %+v", sl)
	}
	if !sl.BillingDate.Equal(date(2024, time.April, 28)) {
		t.Errorf("expected billing 2024-04-28, got %v", sl.BillingDate)
	}
}

func TestProjectSlices_DefensiveInstallmentFlags(t *testing.T) {
	for _, total := range []int{0, 1, -3} {
		tx := domain.Transaction{
			Amount:            50,
			Date:              date(2024, time.May, 2),
			IsInstallment:     true,
			InstallmentsTotal: total,
		}
		slices := engine.ProjectSlices(tx, nil)
		if len(slices) != 1 {
			t.Errorf("installmentsTotal=%d: expected 1 slice, got %d", total, len(slices))
		}
		if slices[0].Amount != 50 {
			t.Errorf("installmentsTotal=%d: expected full amount, got %.2f", total, slices[0].Amount)
		}
	}
}

func TestProjectSlices_Conservation(t *testing.T) {
	// The remainder of non-terminating divisions lands on the last slice so
	// the slices always sum back to the effective amount exactly.
	tests := []struct {
		amount float64
		n      int
		want   []float64
	}{
		{100, 3, []float64{33.33, 33.33, 33.34}},
		{1200, 12, nil},
		{999.99, 7, nil},
		{0.05, 2, []float64{0.03, 0.02}},
	}

	for _, tt := range tests {
		tx := domain.Transaction{
			Amount:            tt.amount,
			Date:              date(2024, time.January, 10),
			IsInstallment:     true,
			InstallmentsTotal: tt.n,
		}
		slices := engine.ProjectSlices(tx, nil)
		if len(slices) != tt.n {
			t.Fatalf("amount=%.2f n=%d: expected %d slices, got %d", tt.amount, tt.n, tt.n, len(slices))
		}

		var sum float64
		for i, sl := range slices {
			sum += sl.Amount
			if tt.want != nil && sl.Amount != tt.want[i] {
				t.Errorf("amount=%.2f n=%d slice %d: expected %.2f, got %.2f",
					tt.amount, tt.n, i+1, tt.want[i], sl.Amount)
			}
		}
		if math.Abs(sum-tt.amount) > 1e-9 {
			t.Errorf("amount=%.2f n=%d: slices sum to %.4f, conservation broken", tt.amount, tt.n, sum)
		}
	}
}

func TestProjectSlices_SharedInstallment(t *testing.T) {
	share := 600.0
	tx := domain.Transaction{
		Amount:            1200,
		MyShareValue:      &share,
		IsShared:          true,
		Date:              date(2024, time.January, 15),
		IsInstallment:     true,
		InstallmentsTotal: 6,
	}

	slices := engine.ProjectSlices(tx, nil)
	for _, sl := range slices {
		if sl.Amount != 100 {
			t.Errorf("expected slices over the user share (100), got %.2f", sl.Amount)
		}
	}
}

func TestProjectSlices_ConsecutiveMonthCoverage(t *testing.T) {
	// Slices occupy exactly N consecutive calendar months starting at the
	// purchase month, with no gaps or duplicates, even when day clamping
	// shifts the day (purchase on Jan 31).
	tx := domain.Transaction{
		Amount:            500,
		Date:              date(2024, time.January, 31),
		IsInstallment:     true,
		InstallmentsTotal: 5,
	}

	slices := engine.ProjectSlices(tx, nil)
	seen := make(map[string]bool)
	for i, sl := range slices {
		if diff := engine.MonthDiff(tx.Date, sl.NominalDate); diff != i {
			t.Errorf("slice %d: expected month offset %d, got %d", i+1, i, diff)
		}
		key := sl.NominalDate.Format("2006-01")
		if seen[key] {
			t.Errorf("duplicate month %s", key)
		}
		seen[key] = true
	}

	// Feb slice clamps 31 -> 29 in 2024.
	if got := slices[1].NominalDate; !got.Equal(date(2024, time.February, 29)) {
		t.Errorf("expected clamped Feb 29 nominal, got %v", got)
	}
}

func TestInstallmentCount(t *testing.T) {
	if n := engine.InstallmentCount(domain.Transaction{IsInstallment: true, InstallmentsTotal: 10}); n != 10 {
		t.Errorf("expected 10, got %d", n)
	}
	if n := engine.InstallmentCount(domain.Transaction{IsInstallment: true, InstallmentsTotal: 1}); n != 1 {
		t.Errorf("expected defensive 1, got %d", n)
	}
	if n := engine.InstallmentCount(domain.Transaction{InstallmentsTotal: 12}); n != 1 {
		t.Errorf("expected 1 without the flag, got %d", n)
	}
}
