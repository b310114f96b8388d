package timeutil

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	// 23:30 UTC on a summer date is already the next day in Canary (WEST, UTC+1)
	in := time.Date(2026, 7, 10, 23, 30, 0, 0, time.UTC)
	got := StartOfDay(in)

	if got.Year() != 2026 || got.Month() != 7 || got.Day() != 11 {
		t.Errorf("expected clinic day 2026-07-11, got %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Errorf("expected midnight, got %v", got)
	}
	if got.Location() != ClinicTZ {
		t.Errorf("expected clinic timezone, got %v", got.Location())
	}
}

func TestEndOfDayAfterStartOfDay(t *testing.T) {
	in := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)
	start := StartOfDay(in)
	end := EndOfDay(in)

	if !end.After(start) {
		t.Fatalf("end %v should be after start %v", end, start)
	}
	if end.Sub(start) >= 24*time.Hour {
		t.Errorf("end-start span %v should be under 24h", end.Sub(start))
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-03-15")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if got.Year() != 2026 || got.Month() != 3 || got.Day() != 15 {
		t.Errorf("expected 2026-03-15, got %v", got)
	}
	if got.Location() != ClinicTZ {
		t.Errorf("expected clinic timezone, got %v", got.Location())
	}

	if _, err := ParseDate("15/03/2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := ParseDate(""); err == nil {
		t.Error("expected error for empty string")
	}
}
