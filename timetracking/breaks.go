package timetracking

import (
	"math"

	"jobflow/models"
)

// minimumLongShiftBreakMinutes is the break required once a shift passes
// BreakRequiredAfterHours.
const minimumLongShiftBreakMinutes = 30

type BreakValidation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateBreakRules checks the logged break of a closed entry. Open
// entries are always valid.
func (c *Calculator) ValidateBreakRules(e *models.TimeEntry) BreakValidation {
	if e == nil || e.ClockOut == nil {
		return BreakValidation{Valid: true}
	}

	breakMinutes := explicitBreakMinutes(e)
	workedHours := math.Max(0, e.GrossMinutes()-breakMinutes) / 60

	if workedHours > c.rules.BreakRequiredAfterHours && breakMinutes < minimumLongShiftBreakMinutes {
		return BreakValidation{
			Message: dutch("Bij meer dan %.0f uur werken is minimaal %d minuten pauze verplicht",
				c.rules.BreakRequiredAfterHours, minimumLongShiftBreakMinutes),
		}
	}
	if breakMinutes < float64(c.rules.BreakMinimumMinutes) {
		return BreakValidation{
			Message: dutch("Pauze moet minimaal %d minuten zijn", c.rules.BreakMinimumMinutes),
		}
	}
	return BreakValidation{Valid: true}
}

// ValidateShiftLimits returns warnings when entry exceeds the daily maximum
// or starts too soon after previous. previous may be nil.
func (c *Calculator) ValidateShiftLimits(e, previous *models.TimeEntry) []string {
	var warnings []string
	if e == nil {
		return nil
	}
	if e.ClockOut != nil && c.rules.MaxDailyHours > 0 {
		if w := c.CalculateDetailedWorkedHours(e); w.Total > c.rules.MaxDailyHours {
			warnings = append(warnings, dutch("Maximale werktijd van %.0f uur per dag overschreden", c.rules.MaxDailyHours))
		}
	}
	if previous != nil && previous.ClockOut != nil && c.rules.MinRestBetweenShifts > 0 {
		rest := e.ClockIn.Sub(*previous.ClockOut).Hours()
		if rest >= 0 && rest < c.rules.MinRestBetweenShifts {
			warnings = append(warnings, dutch("Minder dan %.0f uur rust tussen twee diensten", c.rules.MinRestBetweenShifts))
		}
	}
	return warnings
}
