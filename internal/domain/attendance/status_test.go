package attendance

import "testing"

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		minutes float64
		want    string
	}{
		{0, StatusAbsent},
		{299, StatusAbsent},
		{299.9, StatusAbsent},
		{300, StatusHalfDay},
		{419, StatusHalfDay},
		{419.9, StatusHalfDay},
		{420, StatusPresent},
		{480, StatusPresent},
	}
	for _, c := range cases {
		if got := DeriveStatus(c.minutes); got != c.want {
			t.Errorf("DeriveStatus(%v) = %s, want %s", c.minutes, got, c.want)
		}
	}
}
