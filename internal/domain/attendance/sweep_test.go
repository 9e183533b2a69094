package attendance

import (
	"context"
	"testing"
	"time"
)

type fakeSweepStore struct {
	open   []Record
	closed map[string]Record
	raced  map[string]bool
}

func (f *fakeSweepStore) ListOpenSessionsBefore(_ context.Context, cutoff time.Time) ([]Record, error) {
	var out []Record
	for _, r := range f.open {
		if r.CheckIn.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSweepStore) CloseOpenSession(_ context.Context, id string, checkOut time.Time, status string) (bool, error) {
	if f.raced[id] {
		return false, nil
	}
	if f.closed == nil {
		f.closed = map[string]Record{}
	}
	f.closed[id] = Record{ID: id, CheckOut: &checkOut, Status: status}
	return true, nil
}

func TestRunAutoCheckoutClosesStaleSessions(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, time.February, 10, 2, 0, 0, 0, loc)

	store := &fakeSweepStore{open: []Record{
		// Checked in yesterday 09:00, never out: 15h to end of day, present.
		{ID: "a", CheckIn: time.Date(2026, time.February, 9, 9, 0, 0, 0, loc)},
		// Checked in yesterday 19:30: 4h29m to end of day, absent.
		{ID: "b", CheckIn: time.Date(2026, time.February, 9, 19, 30, 0, 0, loc)},
		// Checked in today: must not be touched.
		{ID: "c", CheckIn: time.Date(2026, time.February, 10, 1, 0, 0, 0, loc)},
	}}

	res, err := RunAutoCheckout(context.Background(), store, now)
	if err != nil {
		t.Fatalf("RunAutoCheckout: %v", err)
	}
	if res.Scanned != 2 || len(res.Closed) != 2 {
		t.Fatalf("result = %+v, want scanned=2 closed=2", res)
	}
	for _, rec := range res.Closed {
		if !rec.IsManualEdit || rec.CheckOut == nil {
			t.Fatalf("closed record not flagged as system edit: %+v", rec)
		}
	}
	if _, touched := store.closed["c"]; touched {
		t.Fatal("today's open session was closed")
	}

	a := store.closed["a"]
	if a.Status != StatusPresent {
		t.Fatalf("session a status = %s, want PRESENT", a.Status)
	}
	wantOut := time.Date(2026, time.February, 9, 23, 59, 59, int(999*time.Millisecond), loc)
	if !a.CheckOut.Equal(wantOut) {
		t.Fatalf("session a check-out = %v, want %v", a.CheckOut, wantOut)
	}

	if got := store.closed["b"].Status; got != StatusAbsent {
		t.Fatalf("session b status = %s, want ABSENT", got)
	}
}

func TestRunAutoCheckoutSkipsRacedSessions(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, time.February, 10, 2, 0, 0, 0, loc)
	store := &fakeSweepStore{
		open:  []Record{{ID: "a", CheckIn: now.Add(-20 * time.Hour)}},
		raced: map[string]bool{"a": true},
	}
	res, err := RunAutoCheckout(context.Background(), store, now)
	if err != nil {
		t.Fatalf("RunAutoCheckout: %v", err)
	}
	if res.Scanned != 1 || len(res.Closed) != 0 {
		t.Fatalf("result = %+v, want scanned=1 closed=0", res)
	}
}
