package timetracking

// WorkingTimeRules configures one calculator. The values are read-only for
// the lifetime of a Calculator.
type WorkingTimeRules struct {
	StandardWorkingHours float64 `json:"standard_working_hours" mapstructure:"standard_working_hours"`
	OvertimeThreshold    float64 `json:"overtime_threshold" mapstructure:"overtime_threshold"`
	// ContractHoursPerWeek overrides StandardWorkingHours when > 0.
	ContractHoursPerWeek       float64 `json:"contract_hours_per_week" mapstructure:"contract_hours_per_week"`
	CompensationTimeMultiplier float64 `json:"compensation_time_multiplier" mapstructure:"compensation_time_multiplier"`
	MaxCompensationBalance     float64 `json:"max_compensation_balance" mapstructure:"max_compensation_balance"`
	ShortageThreshold          float64 `json:"shortage_threshold" mapstructure:"shortage_threshold"`
	BreakMinimumMinutes        int     `json:"break_minimum_minutes" mapstructure:"break_minimum_minutes"`
	BreakRequiredAfterHours    float64 `json:"break_required_after_hours" mapstructure:"break_required_after_hours"`
	WeekendMultiplier          float64 `json:"weekend_multiplier" mapstructure:"weekend_multiplier"`
	EveningMultiplier          float64 `json:"evening_multiplier" mapstructure:"evening_multiplier"`
	NightMultiplier            float64 `json:"night_multiplier" mapstructure:"night_multiplier"`
	HolidayMultiplier          float64 `json:"holiday_multiplier" mapstructure:"holiday_multiplier"`
	AutoBreakAfterHours        float64 `json:"auto_break_after_hours" mapstructure:"auto_break_after_hours"`
	AutoBreakMinutes           int     `json:"auto_break_minutes" mapstructure:"auto_break_minutes"`
	MaxDailyHours              float64 `json:"max_daily_hours" mapstructure:"max_daily_hours"`
	MinRestBetweenShifts       float64 `json:"min_rest_between_shifts" mapstructure:"min_rest_between_shifts"`
}

func DefaultRules() WorkingTimeRules {
	return WorkingTimeRules{
		StandardWorkingHours:       40,
		OvertimeThreshold:          40,
		CompensationTimeMultiplier: 1.0,
		MaxCompensationBalance:     80,
		ShortageThreshold:          2,
		BreakMinimumMinutes:        30,
		BreakRequiredAfterHours:    6,
		WeekendMultiplier:          1.5,
		EveningMultiplier:          1.25,
		NightMultiplier:            1.5,
		HolidayMultiplier:          2.0,
		AutoBreakAfterHours:        6,
		AutoBreakMinutes:           30,
		MaxDailyHours:              10,
		MinRestBetweenShifts:       11,
	}
}

// weeklyHours picks the weekly contract hours: explicit override, then the
// configured contract hours, then the standard week.
func (r WorkingTimeRules) weeklyHours(override float64) float64 {
	if override > 0 {
		return override
	}
	if r.ContractHoursPerWeek > 0 {
		return r.ContractHoursPerWeek
	}
	return r.StandardWorkingHours
}

func (r WorkingTimeRules) multiplier(c Category) float64 {
	switch c {
	case CategoryWeekend:
		return r.WeekendMultiplier
	case CategoryEvening:
		return r.EveningMultiplier
	case CategoryNight:
		return r.NightMultiplier
	case CategoryHoliday:
		return r.HolidayMultiplier
	}
	return 1
}
