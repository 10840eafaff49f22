package service

import (
	"context"
	"errors"
	"fmt"

	"jobflow/models"
	"jobflow/notifications"
	"jobflow/repository"
	"jobflow/timetracking"
)

type ClockInResult struct {
	Entry    *models.TimeEntry `json:"entry"`
	Warnings []string          `json:"warnings,omitempty"`
}

// ClockIn opens a new regular entry for user. A rest-period warning is
// returned when the previous shift ended too recently.
func (s *TimeService) ClockIn(ctx context.Context, user *models.User, description string) (ClockInResult, error) {
	if _, err := s.repos.TimeEntries.FindOpen(ctx, user.ID); err == nil {
		return ClockInResult{}, ErrAlreadyClockedIn
	} else if !errors.Is(err, repository.ErrNotFound) {
		return ClockInResult{}, fmt.Errorf("finding open entry: %w", err)
	}

	now := s.Now()
	entry := &models.TimeEntry{
		UserID:      user.ID,
		ClockIn:     now,
		WorkType:    models.WorkRegular,
		Description: description,
	}

	previous, err := s.repos.TimeEntries.LastClosedBefore(ctx, user.ID, now)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return ClockInResult{}, fmt.Errorf("finding previous entry: %w", err)
	}
	warnings := s.calc.ValidateShiftLimits(entry, previous)

	if err := s.repos.TimeEntries.Create(ctx, entry); err != nil {
		return ClockInResult{}, fmt.Errorf("creating entry: %w", err)
	}
	s.log.Info("clocked in", "user_id", user.ID, "entry_id", entry.ID)
	return ClockInResult{Entry: entry, Warnings: warnings}, nil
}

type ClockOutResult struct {
	Entry    *models.TimeEntry            `json:"entry"`
	Hours    timetracking.WorkedHours     `json:"hours"`
	Break    timetracking.BreakValidation `json:"break"`
	Warnings []string                     `json:"warnings,omitempty"`
}

// ClockOut closes the user's running entry with the given break and caches
// the classification on the entry.
func (s *TimeService) ClockOut(ctx context.Context, user *models.User, breakMinutes int) (ClockOutResult, error) {
	entry, err := s.repos.TimeEntries.FindOpen(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ClockOutResult{}, ErrNotClockedIn
	}
	if err != nil {
		return ClockOutResult{}, fmt.Errorf("finding open entry: %w", err)
	}

	now := s.Now()
	entry.ClockOut = &now
	if breakMinutes > 0 {
		entry.TotalBreakMinutes = breakMinutes
	}

	worked := s.calc.CalculateDetailedWorkedHours(entry)
	applyClassification(entry, worked, s.calc.LoadingBonus(worked))

	if err := s.repos.TimeEntries.Save(ctx, entry); err != nil {
		return ClockOutResult{}, fmt.Errorf("saving entry: %w", err)
	}
	s.invalidate(ctx, user.ID)
	s.metrics.Calculation("worked_hours")

	result := ClockOutResult{
		Entry:    entry,
		Hours:    worked,
		Break:    s.calc.ValidateBreakRules(entry),
		Warnings: s.calc.ValidateShiftLimits(entry, nil),
	}
	if !result.Break.Valid {
		s.notify(ctx, user, notifications.TypeBreakViolation, map[string]any{
			"Message": result.Break.Message,
		})
	}
	s.log.Info("clocked out",
		"user_id", user.ID,
		"entry_id", entry.ID,
		"hours", worked.Total,
		"category", worked.Category)
	return result, nil
}

func applyClassification(e *models.TimeEntry, w timetracking.WorkedHours, bonus float64) {
	e.IsHoliday = w.Category == timetracking.CategoryHoliday
	e.IsWeekend = w.Category == timetracking.CategoryWeekend
	e.IsNight = w.Category == timetracking.CategoryNight
	e.IsEvening = w.Category == timetracking.CategoryEvening
	e.AutoBreakApplied = w.Breakdown.AutoBreakDeducted > 0
	e.CalculatedHours = w.Total
	e.CompensationEarned = bonus
}
