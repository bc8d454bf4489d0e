package memberimport

import (
	"errors"
	"math"
	"strings"
	"time"
)

// serialEpoch is day zero of spreadsheet date serials. It absorbs the
// 1900 leap-year bug, so serial 60 and later map to the right dates.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// textLayouts are the free-text date forms accepted for a join date, tried in order.
var textLayouts = []string{
	"2006-01-02",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006/1/2",
	time.RFC3339,
}

var errUnparseableDate = errors.New("unrecognised date")

// ParseJoinDate converts a join-date cell into a calendar date.
// Numbers and numeric strings are spreadsheet serials; anything else is parsed as text.
func ParseJoinDate(v any) (time.Time, error) {
	if n, ok := toNumber(v); ok {
		return fromSerial(n)
	}
	s := toString(v)
	if s == "" {
		return time.Time{}, errUnparseableDate
	}
	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	// "13th December 2025"
	if t, err := time.Parse("2 January 2006", stripOrdinal(s)); err == nil {
		return t, nil
	}
	return time.Time{}, errUnparseableDate
}

func fromSerial(n float64) (time.Time, error) {
	if n < 1 || n > 2958465 || math.IsNaN(n) {
		return time.Time{}, errUnparseableDate
	}
	return serialEpoch.AddDate(0, 0, int(math.Floor(n))), nil
}

func stripOrdinal(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	day := strings.ToLower(fields[0])
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if strings.HasSuffix(day, suffix) {
			fields[0] = fields[0][:len(fields[0])-len(suffix)]
			break
		}
	}
	return strings.Join(fields, " ")
}
