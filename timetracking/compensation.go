package timetracking

import (
	"context"
	"fmt"
	"math"
	"time"

	"jobflow/models"

	"github.com/google/uuid"
)

type CompensationCheck struct {
	Allowed    bool    `json:"allowed"`
	MaxAllowed float64 `json:"max_allowed"`
	Message    string  `json:"message,omitempty"`
}

// CanEarnCompensation checks newHours against the balance cap. MaxAllowed
// is the room left under the cap.
func (c *Calculator) CanEarnCompensation(currentBalance, newHours float64) CompensationCheck {
	room := math.Max(0, c.rules.MaxCompensationBalance-currentBalance)
	if currentBalance+newHours <= c.rules.MaxCompensationBalance {
		return CompensationCheck{Allowed: true, MaxAllowed: room}
	}
	return CompensationCheck{
		Allowed:    false,
		MaxAllowed: room,
		Message: dutch("Maximaal tijd-voor-tijd saldo van %.1f uur bereikt. Nog op te bouwen: %.1f uur",
			c.rules.MaxCompensationBalance, room),
	}
}

type CompensationType string

const (
	CompensationVacation CompensationType = "VACATION"
	CompensationPersonal CompensationType = "PERSONAL"
	CompensationSick     CompensationType = "SICK"
	CompensationFlex     CompensationType = "FLEX"
)

func (t CompensationType) Valid() bool {
	switch t {
	case CompensationVacation, CompensationPersonal, CompensationSick, CompensationFlex:
		return true
	}
	return false
}

type BulkCompensationAction struct {
	UserID      uint             `json:"user_id"`
	Dates       []time.Time      `json:"dates"`
	HoursPerDay float64          `json:"hours_per_day"`
	Type        CompensationType `json:"type"`
	Reason      string           `json:"reason"`
	// TotalHours is optional. When set it must equal len(Dates) * HoursPerDay.
	TotalHours float64 `json:"total_hours"`
}

// BalanceLookup supplies a user's spendable compensation balance.
type BalanceLookup interface {
	AvailableCompensation(ctx context.Context, userID uint) (float64, error)
}

type BulkCompensationResult struct {
	Success          bool               `json:"success"`
	Message          string             `json:"message"`
	BatchID          string             `json:"batch_id,omitempty"`
	Entries          []models.TimeEntry `json:"entries,omitempty"`
	AvailableBalance float64            `json:"available_balance"`
	RequestedHours   float64            `json:"requested_hours"`
	RemainingBalance float64            `json:"remaining_balance"`
}

// compensationDayStartHour is the clock-in hour of generated entries.
const compensationDayStartHour = 9

// CompensationSpender turns bulk time-off requests into pending entries
// against the user's compensation balance.
type CompensationSpender struct {
	lookup BalanceLookup
	newID  func() string
}

func NewCompensationSpender(lookup BalanceLookup) *CompensationSpender {
	return &CompensationSpender{
		lookup: lookup,
		newID:  func() string { return uuid.NewString() },
	}
}

// WithLookup returns a copy of s that reads balances from lookup.
func (s *CompensationSpender) WithLookup(lookup BalanceLookup) *CompensationSpender {
	c := *s
	c.lookup = lookup
	return &c
}

// Process validates action against the available balance. A rejected
// request is reported in the result, not as an error; err is only set when
// the balance lookup fails.
func (s *CompensationSpender) Process(ctx context.Context, action BulkCompensationAction) (BulkCompensationResult, error) {
	available, err := s.lookup.AvailableCompensation(ctx, action.UserID)
	if err != nil {
		return BulkCompensationResult{}, fmt.Errorf("looking up compensation balance: %w", err)
	}

	result := BulkCompensationResult{
		AvailableBalance: available,
		RemainingBalance: available,
	}

	if len(action.Dates) == 0 {
		result.Message = "Geen datums geselecteerd"
		return result, nil
	}
	if action.HoursPerDay <= 0 || action.HoursPerDay > 24 {
		result.Message = "Ongeldig aantal uren per dag"
		return result, nil
	}
	if action.Type != "" && !action.Type.Valid() {
		result.Message = "Ongeldig type compensatie"
		return result, nil
	}

	total := float64(len(action.Dates)) * action.HoursPerDay
	if action.TotalHours != 0 && math.Abs(action.TotalHours-total) > 1e-9 {
		result.Message = dutch("Totaal van %.1f uur komt niet overeen met %d dag(en) van %.1f uur",
			action.TotalHours, len(action.Dates), action.HoursPerDay)
		return result, nil
	}
	result.RequestedHours = total

	if total > available {
		result.Message = dutch("Onvoldoende tijd-voor-tijd saldo. Beschikbaar: %.1f uur, aangevraagd: %.1f uur",
			available, total)
		return result, nil
	}

	batchID := s.newID()
	entries := make([]models.TimeEntry, 0, len(action.Dates))
	for _, d := range action.Dates {
		in := time.Date(d.Year(), d.Month(), d.Day(), compensationDayStartHour, 0, 0, 0, d.Location())
		out := in.Add(time.Duration(action.HoursPerDay * float64(time.Hour)))
		entries = append(entries, models.TimeEntry{
			UserID:           action.UserID,
			ClockIn:          in,
			ClockOut:         &out,
			WorkType:         models.WorkCompensationUsed,
			Description:      action.Reason,
			CalculatedHours:  action.HoursPerDay,
			CompensationType: string(action.Type),
			BatchID:          batchID,
			Approved:         false,
		})
	}

	result.Success = true
	result.BatchID = batchID
	result.Entries = entries
	result.RemainingBalance = available - total
	result.Message = dutch("Aanvraag voor %d dag(en), %.1f uur, ingediend ter goedkeuring", len(entries), total)
	return result, nil
}
