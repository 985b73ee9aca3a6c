package calendar

import (
	"fmt"
	"time"

	"github.com/username/jp-holiday-mcp/pkg/dateutil"
)

// Loader provides the loaded dataset
type Loader interface {
	EnsureLoaded() (*Dataset, error)
}

// Engine implements Querier on top of a Loader
type Engine struct {
	loader Loader
}

// NewEngine creates a new Engine
func NewEngine(loader Loader) *Engine {
	return &Engine{loader: loader}
}

// GetDay returns the record for a date.
// The date must already be syntactically valid YYYY-MM-DD.
func (e *Engine) GetDay(date string) (*Record, error) {
	ds, err := e.loader.EnsureLoaded()
	if err != nil {
		return nil, err
	}

	rec, ok := ds.Day(date)
	if !ok {
		return nil, fmt.Errorf("day %s: %w", date, ErrNotFound)
	}

	return rec, nil
}

// ListMonthHolidays returns the public holidays of a month in date order.
// A month without holidays (or without data) yields an empty slice.
func (e *Engine) ListMonthHolidays(year, month int) ([]HolidayEntry, error) {
	key, err := monthKey(year, month)
	if err != nil {
		return nil, err
	}

	ds, err := e.loader.EnsureLoaded()
	if err != nil {
		return nil, err
	}

	holidays := []HolidayEntry{}
	for _, rec := range ds.Month(key) {
		if rec.PublicHoliday.IsHoliday {
			holidays = append(holidays, newHolidayEntry(rec))
		}
	}

	return holidays, nil
}

// NextHoliday returns the holiday on or after today (YYYY-MM-DD).
//
// Only the first record dated on or after today is examined: if that day is
// not a holiday the result is ErrNotFound, even when a later holiday exists.
func (e *Engine) NextHoliday(today string) (*HolidayEntry, error) {
	ds, err := e.loader.EnsureLoaded()
	if err != nil {
		return nil, err
	}

	for i := range ds.Records {
		rec := &ds.Records[i]
		// YYYY-MM-DD strings order the same way as the dates they encode
		if rec.Date < today {
			continue
		}
		if rec.PublicHoliday.IsHoliday {
			entry := newHolidayEntry(rec)
			return &entry, nil
		}
		break
	}

	return nil, fmt.Errorf("holiday on or after %s: %w", today, ErrNotFound)
}

// BusinessDaySummary counts business days (days banks are open) in a month
func (e *Engine) BusinessDaySummary(year, month int) (*BusinessDaySummary, error) {
	key, err := monthKey(year, month)
	if err != nil {
		return nil, err
	}

	ds, err := e.loader.EnsureLoaded()
	if err != nil {
		return nil, err
	}

	days := ds.Month(key)
	if len(days) == 0 {
		return nil, fmt.Errorf("month %s: %w", key, ErrNotFound)
	}

	summary := &BusinessDaySummary{TotalDays: len(days)}
	for _, rec := range days {
		if !rec.BankHoliday.IsClosed {
			summary.BusinessDays++
		}
	}
	summary.ClosedDays = summary.TotalDays - summary.BusinessDays

	return summary, nil
}

func monthKey(year, month int) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month %d: %w", month, ErrInvalidRange)
	}
	return dateutil.MonthKey(year, time.Month(month)), nil
}

var _ Querier = (*Engine)(nil)
