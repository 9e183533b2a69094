package shared

import (
	"fmt"
	"time"
)

// ParseDate parses a calendar date from YYYY-MM-DD or full RFC3339 form.
// Empty input is an error; optional dates are the caller's decision to make
// before parsing.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}
