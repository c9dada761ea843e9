// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/pricecast/pricecast/pkg/constants"
)

// DateTimeLayout is the format expected in datasets and config files and is
// also the output date format.
const DateTimeLayout = constants.DateTimeLayout

// MustParseTime parses a date string using the given layout and panics on
// error. This is intended for use in tests where the date string is known to
// be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// OffsetDate returns the string-formatted date offset by the given number of
// days relative to the given date.
func OffsetDate(date, layout string, days int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, 0, days).Format(layout), nil
}

// DayOfWeek returns the day of week for a date as a number, 0 = Sunday
// through 6 = Saturday, matching time.Weekday.
func DayOfWeek(t time.Time) float64 {
	return float64(t.Weekday())
}

// DateBeforeDate returns true if firstDate is strictly before secondDate.
func DateBeforeDate(firstDate, secondDate time.Time) bool {
	return firstDate.Before(secondDate)
}
