package engine_test

import (
	"testing"
	"time"

	"github.com/granadev/grana-go/internal/engine"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths_ClampsDay(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"jan 31 plus one clamps to feb 29", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"jan 31 plus one clamps to feb 28", date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{"jan 31 plus three keeps 30 in april", date(2024, time.January, 31), 3, date(2024, time.April, 30)},
		{"december rolls into next year", date(2024, time.December, 15), 1, date(2025, time.January, 15)},
		{"crosses multiple years", date(2024, time.March, 10), 24, date(2026, time.March, 10)},
		{"zero is identity", date(2024, time.June, 30), 0, date(2024, time.June, 30)},
		{"negative goes backwards", date(2024, time.March, 31), -1, date(2024, time.February, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.AddMonths(tt.in, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestMonthDiff(t *testing.T) {
	tests := []struct {
		a, b time.Time
		want int
	}{
		{date(2024, time.January, 15), date(2024, time.April, 2), 3},
		{date(2024, time.April, 2), date(2024, time.January, 15), -3},
		{date(2024, time.November, 30), date(2025, time.February, 1), 3},
		{date(2024, time.March, 1), date(2024, time.March, 31), 0},
	}

	for _, tt := range tests {
		if got := engine.MonthDiff(tt.a, tt.b); got != tt.want {
			t.Errorf("MonthDiff(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}

	for _, tt := range tests {
		if got := engine.DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %v) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestClampDay(t *testing.T) {
	if got := engine.ClampDay(2023, time.February, 31); got != 28 {
		t.Errorf("expected 28, got %d", got)
	}
	if got := engine.ClampDay(2024, time.February, 31); got != 29 {
		t.Errorf("expected 29, got %d", got)
	}
	if got := engine.ClampDay(2024, time.April, 15); got != 15 {
		t.Errorf("expected 15 unchanged, got %d", got)
	}
}

func TestParseMonth(t *testing.T) {
	m, err := engine.ParseMonth("2024-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Year != 2024 || m.Month != time.March {
		t.Errorf("expected 2024-03, got %v", m)
	}
	if m.String() != "2024-03" {
		t.Errorf("expected round-trip '2024-03', got %q", m.String())
	}

	if _, err := engine.ParseMonth("03/2024"); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestMonthAdd_Rollover(t *testing.T) {
	m := engine.Month{Year: 2024, Month: time.December}.Add(1)
	if m.Year != 2025 || m.Month != time.January {
		t.Errorf("expected 2025-01, got %v", m)
	}

	m = engine.Month{Year: 2024, Month: time.January}.Add(-1)
	if m.Year != 2023 || m.Month != time.December {
		t.Errorf("expected 2023-12, got %v", m)
	}
}

func TestMonthRange(t *testing.T) {
	from := engine.Month{Year: 2024, Month: time.November}
	to := engine.Month{Year: 2025, Month: time.February}

	months := engine.MonthRange(from, to)
	if len(months) != 4 {
		t.Fatalf("expected 4 months, got %d", len(months))
	}
	if months[0].String() != "2024-11" || months[3].String() != "2025-02" {
		t.Errorf("unexpected bounds: %v .. %v", months[0], months[3])
	}

	// Inverted range degenerates to the starting month.
	months = engine.MonthRange(to, from)
	if len(months) != 1 {
		t.Errorf("expected 1 month for inverted range, got %d", len(months))
	}
}
