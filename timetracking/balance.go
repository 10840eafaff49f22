package timetracking

import (
	"math"
	"time"

	"jobflow/models"
)

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Weeks is the calendar-day length of the period in weeks: ceil(days) / 7.
func (p Period) Weeks() float64 {
	days := math.Ceil(p.End.Sub(p.Start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 7
}

// WeekOf returns the Monday-to-Sunday period containing t.
func WeekOf(t time.Time) Period {
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
	return Period{
		Start: start,
		End:   start.AddDate(0, 0, 7).Add(-time.Second),
	}
}

// TimeBalance aggregates one user's hours over a period.
type TimeBalance struct {
	UserID                uint    `json:"user_id"`
	Period                Period  `json:"period"`
	RegularHours          float64 `json:"regular_hours"`
	OvertimeHours         float64 `json:"overtime_hours"`
	CompensationHours     float64 `json:"compensation_hours"`
	UsedCompensationHours float64 `json:"used_compensation_hours"`
	ShortageHours         float64 `json:"shortage_hours"`
	ExpectedHours         float64 `json:"expected_hours"`
	ActualHours           float64 `json:"actual_hours"`
	BreakHours            float64 `json:"break_hours"`
	WeekendHours          float64 `json:"weekend_hours"`
	EveningHours          float64 `json:"evening_hours"`
	NightHours            float64 `json:"night_hours"`
	HolidayHours          float64 `json:"holiday_hours"`
	AutoBreakDeducted     float64 `json:"auto_break_deducted"`
}

// NetCompensation is earned minus used compensation hours.
func (b TimeBalance) NetCompensation() float64 {
	return b.CompensationHours - b.UsedCompensationHours
}

// CalculateTimeBalance aggregates entries for one user over period.
// weeklyOverride, when > 0, replaces the configured weekly contract hours.
//
// RegularHours is capped by the period's expected hours while OvertimeHours
// is measured against a single week; the two need not add up to
// ActualHours for periods other than one week.
func (c *Calculator) CalculateTimeBalance(userID uint, entries []models.TimeEntry, period Period, weeklyOverride float64) TimeBalance {
	weeklyHours := c.rules.weeklyHours(weeklyOverride)

	b := TimeBalance{UserID: userID, Period: period}
	var breakMinutes float64
	for i := range entries {
		e := &entries[i]
		breakMinutes += explicitBreakMinutes(e)
		if e.ClockOut == nil {
			continue
		}

		switch e.WorkType {
		case models.WorkRegular:
			w := c.CalculateDetailedWorkedHours(e)
			b.ActualHours += w.Total
			b.WeekendHours += w.Breakdown.Weekend
			b.EveningHours += w.Breakdown.Evening
			b.NightHours += w.Breakdown.Night
			b.HolidayHours += w.Breakdown.Holiday
			b.AutoBreakDeducted += w.Breakdown.AutoBreakDeducted
		case models.WorkCompensationUsed:
			b.UsedCompensationHours += math.Max(0, e.GrossMinutes()-explicitBreakMinutes(e)) / 60
		}
	}

	b.BreakHours = breakMinutes / 60
	b.ExpectedHours = period.Weeks() * weeklyHours
	b.RegularHours = math.Min(b.ActualHours, b.ExpectedHours)
	b.OvertimeHours = math.Max(0, b.ActualHours-weeklyHours)
	b.CompensationHours = b.OvertimeHours*c.rules.CompensationTimeMultiplier +
		b.WeekendHours*(c.rules.WeekendMultiplier-1) +
		b.EveningHours*(c.rules.EveningMultiplier-1) +
		b.NightHours*(c.rules.NightMultiplier-1) +
		b.HolidayHours*(c.rules.HolidayMultiplier-1)
	b.ShortageHours = math.Max(0, b.ExpectedHours-b.ActualHours)
	return b
}
