package engine_test

import (
	"testing"
	"time"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/engine"
)

func TestBillingDate_NoSettingsIsImmediate(t *testing.T) {
	nominal := date(2024, time.March, 22)
	if got := engine.BillingDate(nominal, nil); !got.Equal(nominal) {
		t.Errorf("expected nominal date unchanged, got %v", got)
	}
}

func TestBillingDate_Cycles(t *testing.T) {
	tests := []struct {
		name     string
		nominal  time.Time
		settings domain.AccountSettings
		want     time.Time
	}{
		{
			name:     "after closing rolls to next month",
			nominal:  date(2024, time.March, 22),
			settings: domain.AccountSettings{ClosingDay: 20, DueDay: 28},
			want:     date(2024, time.April, 28),
		},
		{
			name:     "before closing stays in current month",
			nominal:  date(2024, time.March, 10),
			settings: domain.AccountSettings{ClosingDay: 20, DueDay: 28},
			want:     date(2024, time.March, 28),
		},
		{
			name:     "due before close pushes to next month",
			nominal:  date(2024, time.March, 10),
			settings: domain.AccountSettings{ClosingDay: 25, DueDay: 5},
			want:     date(2024, time.April, 5),
		},
		{
			name:     "due equal to close resolves to same month",
			nominal:  date(2024, time.March, 10),
			settings: domain.AccountSettings{ClosingDay: 15, DueDay: 15},
			want:     date(2024, time.March, 15),
		},
		{
			name:     "purchase exactly on closing day is in-cycle",
			nominal:  date(2024, time.March, 20),
			settings: domain.AccountSettings{ClosingDay: 20, DueDay: 28},
			want:     date(2024, time.March, 28),
		},
		{
			name:     "december purchase rolls into january",
			nominal:  date(2024, time.December, 27),
			settings: domain.AccountSettings{ClosingDay: 20, DueDay: 10},
			want:     date(2025, time.January, 10),
		},
		{
			name:     "due day clamps in february",
			nominal:  date(2024, time.January, 25),
			settings: domain.AccountSettings{ClosingDay: 20, DueDay: 31},
			want:     date(2024, time.February, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.BillingDate(tt.nominal, &tt.settings)
			if !got.Equal(tt.want) {
				t.Errorf("BillingDate(%v, close=%d due=%d) = %v, want %v",
					tt.nominal, tt.settings.ClosingDay, tt.settings.DueDay, got, tt.want)
			}
		})
	}
}

func TestBillingDate_Idempotent(t *testing.T) {
	nominal := date(2024, time.March, 22)
	settings := &domain.AccountSettings{ClosingDay: 20, DueDay: 28}

	first := engine.BillingDate(nominal, settings)
	second := engine.BillingDate(nominal, settings)
	if !first.Equal(second) {
		t.Errorf("expected identical results, got %v and %v", first, second)
	}
}

func TestSettingsFor(t *testing.T) {
	idx := engine.SettingsIndex([]domain.AccountSettings{
		{AccountID: "nubank", ClosingDay: 25, DueDay: 5},
	})

	credit := domain.Transaction{Account: "nubank", PaymentMethod: domain.PaymentCredit}
	if s := engine.SettingsFor(credit, idx); s == nil || s.ClosingDay != 25 {
		t.Fatalf("expected configured settings, got %+v", s)
	}

	// Credit on an unconfigured account falls back to the default cycle
	// instead of being treated as cash.
	unconfigured := domain.Transaction{Account: "other-card", PaymentMethod: domain.PaymentCredit}
	s := engine.SettingsFor(unconfigured, idx)
	if s == nil {
		t.Fatal("expected fallback settings for unconfigured credit account")
	}
	if s.ClosingDay != engine.DefaultAccountSettings.ClosingDay || s.DueDay != engine.DefaultAccountSettings.DueDay {
		t.Errorf("expected default fallback %+v, got %+v", engine.DefaultAccountSettings, s)
	}

	// Non-credit methods have immediate impact regardless of configuration.
	for _, method := range []domain.PaymentMethod{domain.PaymentDebit, domain.PaymentPix, domain.PaymentCash, domain.PaymentNone} {
		tx := domain.Transaction{Account: "nubank", PaymentMethod: method}
		if s := engine.SettingsFor(tx, idx); s != nil {
			t.Errorf("expected nil settings for %s, got %+v", method, s)
		}
	}
}

func TestEffectiveAmount(t *testing.T) {
	share := 150.0
	shared := domain.Transaction{Amount: 300, IsShared: true, MyShareValue: &share}
	if got := engine.EffectiveAmount(shared); got != 150 {
		t.Errorf("expected user share 150, got %.2f", got)
	}

	full := domain.Transaction{Amount: 300}
	if got := engine.EffectiveAmount(full); got != 300 {
		t.Errorf("expected full amount 300, got %.2f", got)
	}

	// Shared flag without a defined share falls back to the face value.
	flagged := domain.Transaction{Amount: 300, IsShared: true}
	if got := engine.EffectiveAmount(flagged); got != 300 {
		t.Errorf("expected fallback to face value, got %.2f", got)
	}
}
