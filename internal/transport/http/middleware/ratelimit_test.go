package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterFixedWindow(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied inside limit", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("request over limit allowed")
	}
	if !rl.allow("10.0.0.2") {
		t.Fatal("other client blocked by first client's window")
	}

	now = now.Add(time.Minute)
	if !rl.allow("10.0.0.1") {
		t.Fatal("request denied after window rollover")
	}
}
