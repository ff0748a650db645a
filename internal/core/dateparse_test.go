package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string // YYYY-MM-DD, empty means error expected
	}{
		{"2023-01-01", "2023-01-01"},
		{"01-01-2023", "2023-01-01"},
		{"15/06/2023", "2023-06-15"},
		{"2023/06/15", "2023-06-15"},
		{"15.06.2023", "2023-06-15"},
		{"15 06 2023", "2023-06-15"},
		{"2023.06.15", "2023-06-15"},
		{"Jan 2, 2023", "2023-01-02"},
		{"2023-06-15T10:30:00Z", "2023-06-15"},
		{"", ""},
		{"not a date", ""},
		{"32/13/2023", ""},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.want == "" {
			if err == nil {
				t.Errorf("ParseDate(%q) expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got.Format("2006-01-02") != tc.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tc.in, got.Format("2006-01-02"), tc.want)
		}
	}
}

// The try-order resolves ambiguous slash dates day-first: 01/02/2023 is
// February 1st, not January 2nd.
func TestParseDateDayFirst(t *testing.T) {
	got, err := ParseDate("01/02/2023")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v (day-first)", got, want)
	}
}
