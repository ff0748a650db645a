package core

import (
	"errors"
	"strings"
	"time"
)

// ErrUnparseableDate is returned when no known layout matches.
var ErrUnparseableDate = errors.New("unparseable date")

// dateLayouts is tried in order and the first match wins. The order is a
// behavioral contract: day-first layouts come before month-first ones, so
// "01/02/2023" resolves to February 1st. Do not reorder.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-2006",
	"2006/01/02",
	"02.01.2006",
	"01.02.2006",
	"2006.01.02",
	"02 01 2006",
	"01 02 2006",
	"2006 01 02",
}

// fallbackLayouts catches timestamped and spelled-out forms that the
// strict list misses.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"2 January 2006",
}

// ParseDate converts free-form date text to a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrUnparseableDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, ErrUnparseableDate
}
