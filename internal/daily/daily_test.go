package daily

import (
	"testing"
	"time"
)

func TestDateKeyIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	ts := time.Date(2026, 10, 19, 5, 0, 0, 0, loc) // 2026-10-18 19:00 UTC
	if got := DateKey(ts); got != "2026-10-18" {
		t.Errorf("DateKey = %s, want 2026-10-18", got)
	}
}

func TestParseDateKey(t *testing.T) {
	if _, err := ParseDateKey("2026-10-18"); err != nil {
		t.Errorf("valid key: %v", err)
	}
	if _, err := ParseDateKey("18/10/2026"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestWordIndex(t *testing.T) {
	day := time.Date(2026, 10, 18, 1, 0, 0, 0, time.UTC)
	later := time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC)

	a := WordIndex(day, "salt", 100)
	if b := WordIndex(later, "salt", 100); a != b {
		t.Errorf("same day gave %d and %d", a, b)
	}
	if a < 0 || a >= 100 {
		t.Errorf("index %d out of range", a)
	}
	if got := WordIndex(day, "salt", 0); got != 0 {
		t.Errorf("empty corpus index = %d", got)
	}

	// Over a month the schedule should not collapse onto one index.
	seen := map[int]bool{}
	for i := 0; i < 30; i++ {
		seen[WordIndex(day.AddDate(0, 0, i), "salt", 1000)] = true
	}
	if len(seen) < 2 {
		t.Error("word index did not vary across days")
	}
}
