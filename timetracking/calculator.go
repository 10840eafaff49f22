// Package timetracking computes worked-hour breakdowns, time balances,
// compensation ("tijd voor tijd") accrual and shortage alerts from clock
// records. Everything here is pure computation over caller-supplied data.
package timetracking

import (
	"math"
	"time"

	"jobflow/models"
)

// HolidayCalendar decides whether a day is a public holiday.
type HolidayCalendar interface {
	IsHoliday(t time.Time) bool
}

type noHolidays struct{}

func (noHolidays) IsHoliday(time.Time) bool { return false }

// Category is the single bucket an entry's hours are booked into.
type Category string

const (
	CategoryRegular Category = "REGULAR"
	CategoryWeekend Category = "WEEKEND"
	CategoryEvening Category = "EVENING"
	CategoryNight   Category = "NIGHT"
	CategoryHoliday Category = "HOLIDAY"
)

const (
	eveningStartHour = 18
	nightStartHour   = 22
	nightEndHour     = 6
)

// HourBreakdown splits net worked hours over the categories. At most one of
// the category fields is non-zero for a single entry.
type HourBreakdown struct {
	Regular           float64 `json:"regular"`
	Weekend           float64 `json:"weekend"`
	Evening           float64 `json:"evening"`
	Night             float64 `json:"night"`
	Holiday           float64 `json:"holiday"`
	AutoBreakDeducted float64 `json:"auto_break_deducted"`
}

type WorkedHours struct {
	Total     float64       `json:"total"`
	Category  Category      `json:"category,omitempty"`
	Breakdown HourBreakdown `json:"breakdown"`
}

// Calculator applies one set of WorkingTimeRules. It holds no mutable state
// and is safe for concurrent use.
type Calculator struct {
	rules    WorkingTimeRules
	holidays HolidayCalendar
}

// NewCalculator returns a calculator for rules. A nil calendar means no day
// is a holiday.
func NewCalculator(rules WorkingTimeRules, holidays HolidayCalendar) *Calculator {
	if holidays == nil {
		holidays = noHolidays{}
	}
	return &Calculator{rules: rules, holidays: holidays}
}

func (c *Calculator) Rules() WorkingTimeRules {
	return c.rules
}

// CalculateDetailedWorkedHours returns the net hours of a closed entry and
// books them into exactly one category. Open entries yield zero.
func (c *Calculator) CalculateDetailedWorkedHours(e *models.TimeEntry) WorkedHours {
	if e == nil || e.ClockOut == nil {
		return WorkedHours{}
	}

	totalMinutes := e.GrossMinutes()
	breakMinutes := explicitBreakMinutes(e)

	var autoBreak float64
	if breakMinutes == 0 && totalMinutes/60 >= c.rules.AutoBreakAfterHours {
		autoBreak = float64(c.rules.AutoBreakMinutes)
	}

	net := math.Max(0, (totalMinutes-breakMinutes-autoBreak)/60)
	category := c.Classify(e.ClockIn, *e.ClockOut)

	w := WorkedHours{Total: net, Category: category}
	w.Breakdown.AutoBreakDeducted = autoBreak / 60
	switch category {
	case CategoryHoliday:
		w.Breakdown.Holiday = net
	case CategoryWeekend:
		w.Breakdown.Weekend = net
	case CategoryNight:
		w.Breakdown.Night = net
	case CategoryEvening:
		w.Breakdown.Evening = net
	default:
		w.Breakdown.Regular = net
	}
	return w
}

// Classify picks the category for the interval [in, out) in priority order
// holiday > weekend > night > evening > regular.
func (c *Calculator) Classify(in, out time.Time) Category {
	switch {
	case c.holidays.IsHoliday(in):
		return CategoryHoliday
	case in.Weekday() == time.Saturday || in.Weekday() == time.Sunday:
		return CategoryWeekend
	case overlapsDailyWindow(in, out, nightStartHour, nightEndHour):
		return CategoryNight
	case overlapsDailyWindow(in, out, eveningStartHour, 24):
		return CategoryEvening
	}
	return CategoryRegular
}

// LoadingBonus is the extra compensation earned on top of the worked hours
// for work in a loaded category.
func (c *Calculator) LoadingBonus(w WorkedHours) float64 {
	if w.Category == CategoryRegular || w.Category == "" {
		return 0
	}
	return w.Total * (c.rules.multiplier(w.Category) - 1)
}

// overlapsDailyWindow reports whether [in, out) touches the window
// [fromHour, toHour) on any calendar day. A window with toHour <= fromHour
// wraps past midnight.
func overlapsDailyWindow(in, out time.Time, fromHour, toHour int) bool {
	if !out.After(in) {
		return false
	}
	loc := in.Location()
	day := time.Date(in.Year(), in.Month(), in.Day()-1, 0, 0, 0, 0, loc)
	for !day.After(out) {
		start := time.Date(day.Year(), day.Month(), day.Day(), fromHour, 0, 0, 0, loc)
		end := time.Date(day.Year(), day.Month(), day.Day(), toHour, 0, 0, 0, loc)
		if toHour <= fromHour {
			end = end.AddDate(0, 0, 1)
		}
		if in.Before(end) && out.After(start) {
			return true
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}

// explicitBreakMinutes is the logged break: TotalBreakMinutes, or the
// BreakStart/BreakEnd span when only that was recorded.
func explicitBreakMinutes(e *models.TimeEntry) float64 {
	if e.TotalBreakMinutes > 0 {
		return float64(e.TotalBreakMinutes)
	}
	if e.BreakStart != nil && e.BreakEnd != nil && e.BreakEnd.After(*e.BreakStart) {
		return e.BreakEnd.Sub(*e.BreakStart).Minutes()
	}
	return 0
}
