package reports

import (
	"fintrack/internal/core"
)

// MaxRangeDays is the widest report window accepted from a filter change.
const MaxRangeDays = 365

// Preset is a named quick date range.
type Preset string

const (
	Last7Days  Preset = "7d"
	Last30Days Preset = "30d"
	ThisMonth  Preset = "thisMonth"
	LastMonth  Preset = "lastMonth"
	ThisYear   Preset = "thisYear"
)

func Presets() []Preset {
	return []Preset{Last7Days, Last30Days, ThisMonth, LastMonth, ThisYear}
}

// Range resolves the preset relative to today. Every preset except lastMonth
// ends today.
func (p Preset) Range(today core.Date) (start, end core.Date, ok bool) {
	switch p {
	case Last7Days:
		return today.AddDays(-7), today, true
	case Last30Days:
		return today.AddDays(-30), today, true
	case ThisMonth:
		return today.StartOfMonth(), today, true
	case LastMonth:
		prev := today.StartOfMonth().AddDays(-1)
		return prev.StartOfMonth(), prev, true
	case ThisYear:
		return core.NewDate(today.Year(), 1, 1), today, true
	}
	return core.Date{}, core.Date{}, false
}

// ValidateWindow checks a filter window: start not after end, and no wider
// than MaxRangeDays. Open-ended windows pass.
func ValidateWindow(start, end core.Date) error {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	if start.After(end) {
		return core.Invalid("startDate", core.ErrInvalidDateRange, "Start date must be before end date")
	}
	if start.DaysUntil(end) > MaxRangeDays {
		return core.Invalid("endDate", core.ErrInvalidDateRange, "Date range cannot exceed 365 days")
	}
	return nil
}

// ValidateDateRange is ValidateWindow for an explicit range, which needs both
// ends.
func ValidateDateRange(start, end core.Date) error {
	if start.IsZero() || end.IsZero() {
		return core.Invalid("dateRange", core.ErrMissingDate, "Please select both start and end dates")
	}
	return ValidateWindow(start, end)
}
