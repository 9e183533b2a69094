package attendance

import (
	"context"
	"fmt"
	"time"
)

// SweepStore is the slice of the attendance store the auto-checkout sweep
// needs. CloseOpenSession must be a no-op when the session was already
// closed by a racing check-out.
type SweepStore interface {
	ListOpenSessionsBefore(ctx context.Context, cutoff time.Time) ([]Record, error)
	CloseOpenSession(ctx context.Context, id string, checkOut time.Time, status string) (bool, error)
}

type SweepResult struct {
	Scanned int
	// Closed lists every session this run actually closed, with CheckOut and
	// Status already reflecting the sweep's values.
	Closed []Record
}

// EndOfDay returns the last representable millisecond of t's calendar day,
// in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// RunAutoCheckout closes every session still open from a day before `now`:
// check-out lands at the end of the check-in's day, status is derived from
// the resulting duration, and the row is flagged as a system edit. Today's
// open sessions are left alone.
func RunAutoCheckout(ctx context.Context, store SweepStore, now time.Time) (SweepResult, error) {
	y, m, d := now.Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	open, err := store.ListOpenSessionsBefore(ctx, cutoff)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list open sessions: %w", err)
	}

	res := SweepResult{Scanned: len(open)}
	for _, rec := range open {
		checkOut := EndOfDay(rec.CheckIn.In(now.Location()))
		status := DeriveStatus(checkOut.Sub(rec.CheckIn).Minutes())
		closed, err := store.CloseOpenSession(ctx, rec.ID, checkOut, status)
		if err != nil {
			return res, fmt.Errorf("close session %s: %w", rec.ID, err)
		}
		if closed {
			rec.CheckOut = &checkOut
			rec.Status = status
			rec.IsManualEdit = true
			res.Closed = append(res.Closed, rec)
		}
	}
	return res, nil
}
