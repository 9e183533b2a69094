package shared

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-03-02")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseDate = %v, want %v", got, want)
	}

	if _, err := ParseDate("2026-03-02T09:30:00Z"); err != nil {
		t.Fatalf("RFC3339 rejected: %v", err)
	}
}

func TestParseDateRejectsEmptyAndGarbage(t *testing.T) {
	for _, in := range []string{"", "yesterday", "02-03-2026"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) accepted, want error", in)
		}
	}
}
