package calendar

import "errors"

var (
	// ErrDataUnavailable is returned when the dataset could not be loaded
	ErrDataUnavailable = errors.New("holiday data unavailable")

	// ErrNotFound is returned when a valid query has no matching data
	ErrNotFound = errors.New("not found")

	// ErrInvalidRange is returned when the month is outside 1-12
	ErrInvalidRange = errors.New("month must be between 1 and 12")
)

// Flag is the {"flag": bool} object used by several record fields
type Flag struct {
	Flag bool `json:"flag"`
}

// DayOfWeek holds the weekday name, e.g. "水"
type DayOfWeek struct {
	Name string `json:"name"`
}

// PublicHoliday describes a national holiday. Name is set only when IsHoliday is true.
type PublicHoliday struct {
	IsHoliday bool   `json:"flag"`
	Name      string `json:"name,omitempty"`
}

// BankHoliday reports whether financial institutions are closed
type BankHoliday struct {
	IsClosed bool `json:"flag"`
}

// BusinessDayCount counts business days within the record's month
type BusinessDayCount struct {
	Elapsed   *int `json:"up"`
	Remaining *int `json:"down"`
}

// Record represents the precomputed facts for one calendar day
type Record struct {
	Date             string            `json:"date"`
	DayOfWeek        DayOfWeek         `json:"dayofweek"`
	PublicHoliday    PublicHoliday     `json:"public_holiday"`
	BankHoliday      BankHoliday       `json:"bank_holiday"`
	BusinessDayCount *BusinessDayCount `json:"business_date_count,omitempty"`
	DayBeforeHoliday Flag              `json:"day_before_holiday"`
	DayAfterHoliday  Flag              `json:"day_after_holiday"`
}

// HasBusinessDayCount reports whether the record carries business day counters
func (r *Record) HasBusinessDayCount() bool {
	return r.BusinessDayCount != nil && r.BusinessDayCount.Elapsed != nil
}

// MonthKey returns the "YYYY-MM" prefix of the record date
func (r *Record) MonthKey() (string, bool) {
	if len(r.Date) < 7 {
		return "", false
	}
	return r.Date[:7], true
}

// HolidayEntry is a public holiday as returned by month and next-holiday queries
type HolidayEntry struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	DayOfWeek string `json:"dayofweek"`
}

// BusinessDaySummary represents business day statistics for a month
type BusinessDaySummary struct {
	BusinessDays int `json:"business_days"`
	TotalDays    int `json:"total_days"`
	ClosedDays   int `json:"closed_days"`
}

// Querier answers holiday queries
type Querier interface {
	// GetDay returns the record for a YYYY-MM-DD date
	GetDay(date string) (*Record, error)

	// ListMonthHolidays returns the public holidays of a month in date order
	ListMonthHolidays(year, month int) ([]HolidayEntry, error)

	// NextHoliday returns the holiday on or after today
	NextHoliday(today string) (*HolidayEntry, error)

	// BusinessDaySummary returns business day counts for a month
	BusinessDaySummary(year, month int) (*BusinessDaySummary, error)
}

func newHolidayEntry(r *Record) HolidayEntry {
	return HolidayEntry{
		Date:      r.Date,
		Name:      r.PublicHoliday.Name,
		DayOfWeek: r.DayOfWeek.Name,
	}
}
