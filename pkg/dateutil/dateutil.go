package dateutil

import (
	"fmt"
	"time"
)

// DateLayout is the YYYY-MM-DD layout used by the holiday dataset
const DateLayout = "2006-01-02"

// JST is Japan Standard Time. Japan has no daylight saving time.
var JST = FixedZone(9)

// FixedZone returns a location with a whole-hour UTC offset
func FixedZone(offsetHours int) *time.Location {
	if offsetHours == 9 {
		return time.FixedZone("Asia/Tokyo", 9*60*60)
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*60*60)
}

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// Today returns today's date (start of day) in loc
func Today(loc *time.Location) time.Time {
	return StartOfDay(time.Now().In(loc))
}

// FormatDate formats date as YYYY-MM-DD in its own location
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// TodayString returns today's date in loc as YYYY-MM-DD
func TodayString(loc *time.Location) string {
	return FormatDate(Today(loc))
}

// ParseDate parses a strict YYYY-MM-DD date.
// Dates that do not exist on the calendar (e.g. 2025-02-30) are rejected.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t, nil
}

// IsValidDate reports whether dateStr is a valid YYYY-MM-DD date
func IsValidDate(dateStr string) bool {
	_, err := ParseDate(dateStr)
	return err == nil
}

// MonthKey returns the "YYYY-MM" key for a year and month
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%02d", year, int(month))
}
