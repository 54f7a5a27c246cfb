package engine_test

import (
	"testing"
	"time"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/engine"
)

func TestEntriesForDay_RealVsGhost(t *testing.T) {
	// 10x purchase on 2024-01-15: the purchase day shows it in Real only,
	// the 15th of a later month shows it as a ghost with the active index.
	tx := domain.Transaction{
		ID: "notebook", Amount: 3000, Date: date(2024, time.January, 15),
		Type: domain.TypeExpense, PaymentMethod: domain.PaymentCash,
		IsInstallment: true, InstallmentsTotal: 10,
	}
	txns := []domain.Transaction{tx}

	origin := engine.EntriesForDay(txns, nil, 2024, time.January, 15)
	if len(origin.Real) != 1 || origin.Real[0].ID != "notebook" {
		t.Fatalf("expected purchase in Real on origin day, got %+v", origin.Real)
	}
	if len(origin.Ghosts) != 0 {
		t.Errorf("expected no ghosts on origin day, got %d", len(origin.Ghosts))
	}

	third := engine.EntriesForDay(txns, nil, 2024, time.March, 15)
	if len(third.Real) != 0 {
		t.Errorf("expected no real entries two months later, got %d", len(third.Real))
	}
	if len(third.Ghosts) != 1 {
		t.Fatalf("expected one ghost, got %d", len(third.Ghosts))
	}
	ghost := third.Ghosts[0]
	if ghost.InstallmentIndex != 3 {
		t.Errorf("expected installment index 3, got %d", ghost.InstallmentIndex)
	}
	if ghost.SliceAmount != 300 {
		t.Errorf("expected slice amount 300, got %.2f", ghost.SliceAmount)
	}
}

func TestEntriesForDay_GhostStopsAfterLastInstallment(t *testing.T) {
	tx := domain.Transaction{
		ID: "fridge", Amount: 600, Date: date(2024, time.January, 10),
		Type: domain.TypeExpense, PaymentMethod: domain.PaymentCash,
		IsInstallment: true, InstallmentsTotal: 3,
	}
	txns := []domain.Transaction{tx}

	last := engine.EntriesForDay(txns, nil, 2024, time.March, 10)
	if len(last.Ghosts) != 1 {
		t.Fatalf("expected final ghost in March, got %d", len(last.Ghosts))
	}

	after := engine.EntriesForDay(txns, nil, 2024, time.April, 10)
	if len(after.Ghosts) != 0 {
		t.Errorf("expected no ghost after the final installment, got %d", len(after.Ghosts))
	}
}

func TestEntriesForDay_NonInstallmentNeverGhosts(t *testing.T) {
	tx := domain.Transaction{
		ID: "coffee", Amount: 12, Date: date(2024, time.January, 10),
		Type: domain.TypeExpense, PaymentMethod: domain.PaymentPix,
	}

	got := engine.EntriesForDay([]domain.Transaction{tx}, nil, 2024, time.February, 10)
	if len(got.Ghosts) != 0 || len(got.Real) != 0 {
		t.Errorf("expected empty day, got %+v", got)
	}
}

func TestEntriesForDay_GhostDayClamps(t *testing.T) {
	// Purchase on Jan 31: the February occurrence lands on the clamped 29th.
	tx := domain.Transaction{
		ID: "tv", Amount: 400, Date: date(2024, time.January, 31),
		Type: domain.TypeExpense, PaymentMethod: domain.PaymentCash,
		IsInstallment: true, InstallmentsTotal: 4,
	}
	txns := []domain.Transaction{tx}

	feb := engine.EntriesForDay(txns, nil, 2024, time.February, 29)
	if len(feb.Ghosts) != 1 || feb.Ghosts[0].InstallmentIndex != 2 {
		t.Fatalf("expected second installment ghost on Feb 29, got %+v", feb.Ghosts)
	}

	// March occurrence is back on the 31st.
	mar := engine.EntriesForDay(txns, nil, 2024, time.March, 31)
	if len(mar.Ghosts) != 1 || mar.Ghosts[0].InstallmentIndex != 3 {
		t.Errorf("expected third installment ghost on Mar 31, got %+v", mar.Ghosts)
	}
}

func TestEntriesForDay_Subscriptions(t *testing.T) {
	subs := []domain.Subscription{
		{ID: "sub-1", Name: "Streaming", Value: 39.90, DueDay: 15},
		{ID: "sub-2", Name: "Academia", Value: 120, DueDay: 31},
	}

	got := engine.EntriesForDay(nil, subs, 2024, time.April, 15)
	if len(got.Subscriptions) != 1 || got.Subscriptions[0].Name != "Streaming" {
		t.Fatalf("expected only the streaming occurrence, got %+v", got.Subscriptions)
	}

	// Due day 31 clamps to April 30.
	clamped := engine.EntriesForDay(nil, subs, 2024, time.April, 30)
	if len(clamped.Subscriptions) != 1 || clamped.Subscriptions[0].Name != "Academia" {
		t.Fatalf("expected gym occurrence clamped to the 30th, got %+v", clamped.Subscriptions)
	}
}

func TestOccurrenceID_Deterministic(t *testing.T) {
	a := engine.OccurrenceID("sub-1", 2024, time.April)
	b := engine.OccurrenceID("sub-1", 2024, time.April)
	if a != b {
		t.Errorf("expected stable occurrence ID, got %q and %q", a, b)
	}

	other := engine.OccurrenceID("sub-1", 2024, time.May)
	if a == other {
		t.Error("expected distinct IDs across months")
	}
	if a == engine.OccurrenceID("sub-2", 2024, time.April) {
		t.Error("expected distinct IDs across subscriptions")
	}
}
