package timetracking

import (
	"time"

	"jobflow/models"
)

type fixedHolidays map[string]bool

func (f fixedHolidays) IsHoliday(t time.Time) bool {
	return f[t.Format("2006-01-02")]
}

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func closedEntry(in, out time.Time, breakMinutes int) models.TimeEntry {
	return models.TimeEntry{
		UserID:            1,
		ClockIn:           in,
		ClockOut:          &out,
		TotalBreakMinutes: breakMinutes,
		WorkType:          models.WorkRegular,
	}
}

func newTestCalculator() *Calculator {
	return NewCalculator(DefaultRules(), fixedHolidays{"2024-01-01": true})
}
