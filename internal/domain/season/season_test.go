package season

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	got := Key(time.Date(2026, 6, 15, 23, 30, 0, 0, time.FixedZone("X", 2*3600)))
	if got != "2026-06" {
		t.Fatalf("Key() = %q, want 2026-06", got)
	}
}

func TestMonthOf(t *testing.T) {
	cfg := Default()
	m, ok := cfg.MonthOf(time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatal("July should be in season")
	}
	if m.Key != "2026-07" {
		t.Fatalf("month key = %q, want 2026-07", m.Key)
	}
	if _, ok := cfg.MonthOf(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Fatal("September should be out of season")
	}
}

func TestInLateMonth(t *testing.T) {
	cfg := Default()
	if cfg.InLateMonth(time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatal("end of July is not the late month")
	}
	if !cfg.InLateMonth(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("start of August is the late month")
	}
}
