package leave

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTotalDays(t *testing.T) {
	cases := []struct {
		start, end time.Time
		want       float64
	}{
		{day(2026, time.March, 2), day(2026, time.March, 2), 1},
		{day(2026, time.March, 2), day(2026, time.March, 6), 5},
		{day(2026, time.February, 27), day(2026, time.March, 2), 4},
		{day(2026, time.March, 6), day(2026, time.March, 2), 0},
	}
	for _, c := range cases {
		if got := TotalDays(c.start, c.end); got != c.want {
			t.Errorf("TotalDays(%v, %v) = %v, want %v", c.start, c.end, got, c.want)
		}
	}
}

func TestTotalDaysIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2026, time.March, 2, 23, 30, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 3, 0, 15, 0, 0, time.UTC)
	if got := TotalDays(start, end); got != 2 {
		t.Fatalf("TotalDays = %v, want 2", got)
	}
}

func TestRemainingForTotal(t *testing.T) {
	cases := []struct {
		total, used, want float64
	}{
		{20, 0, 20},
		{20, 7.5, 12.5},
		{20, 20, 0},
		{5, 8, -3}, // admin lowered the quota below what was already taken
	}
	for _, c := range cases {
		if got := RemainingForTotal(c.total, c.used); got != c.want {
			t.Errorf("RemainingForTotal(%v, %v) = %v, want %v", c.total, c.used, got, c.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint", day(2026, 3, 1), day(2026, 3, 3), day(2026, 3, 5), day(2026, 3, 7), false},
		{"adjacent next day", day(2026, 3, 1), day(2026, 3, 3), day(2026, 3, 4), day(2026, 3, 6), false},
		{"touching endpoints", day(2026, 3, 1), day(2026, 3, 3), day(2026, 3, 3), day(2026, 3, 5), true},
		{"contained", day(2026, 3, 1), day(2026, 3, 10), day(2026, 3, 4), day(2026, 3, 5), true},
		{"identical", day(2026, 3, 1), day(2026, 3, 2), day(2026, 3, 1), day(2026, 3, 2), true},
	}
	for _, c := range cases {
		if got := Overlaps(c.aStart, c.aEnd, c.bStart, c.bEnd); got != c.want {
			t.Errorf("%s: Overlaps = %v, want %v", c.name, got, c.want)
		}
	}
}
