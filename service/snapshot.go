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

type SnapshotResult struct {
	Period    timetracking.Period          `json:"period"`
	Snapshots int                          `json:"snapshots"`
	Forfeited float64                      `json:"forfeited"`
	Alerts    []timetracking.ShortageAlert `json:"alerts"`
}

// SnapshotWeek stores the balance of every active user for week, credits
// earned compensation up to the balance cap and raises shortage alerts.
// Running it again for the same week replaces the stored snapshots.
func (s *TimeService) SnapshotWeek(ctx context.Context, week timetracking.Period) (SnapshotResult, error) {
	result := SnapshotResult{Period: week}

	users, err := s.repos.Users.ListActive(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("listing users: %w", err)
	}
	history, err := s.history(ctx, users, week)
	if err != nil {
		return result, err
	}

	byID := make(map[uint]*models.User, len(users))
	balances := make([]timetracking.TimeBalance, 0, len(users))
	for i := range users {
		user := &users[i]
		byID[user.ID] = user

		b, err := s.computeBalance(ctx, user, week)
		if err != nil {
			return result, err
		}
		forfeited, err := s.storeSnapshot(ctx, user, b)
		if err != nil {
			return result, err
		}
		s.invalidate(ctx, user.ID)
		balances = append(balances, b)
		result.Snapshots++
		result.Forfeited += forfeited
	}

	result.Alerts = s.calc.DetectShortages(balances, history)
	for _, alert := range result.Alerts {
		s.metrics.ShortageAlert(string(alert.Severity))
		user := byID[alert.UserID]
		data := shortageData(user, alert)

		typ := notifications.TypeShortageWarning
		if alert.Severity == timetracking.SeverityCritical {
			typ = notifications.TypeShortageCritical
		}
		s.notify(ctx, user, typ, data)

		if !alert.ManagerNotified {
			continue
		}
		managers, err := s.repos.Users.ManagersOf(ctx, user)
		if err != nil {
			s.log.Warn("failed to load managers", "user_id", user.ID, "error", err)
			continue
		}
		for i := range managers {
			s.notify(ctx, &managers[i], notifications.TypeShortageCritical, data)
		}
	}

	s.log.Info("weekly snapshot stored",
		"period_start", week.Start,
		"snapshots", result.Snapshots,
		"alerts", len(result.Alerts))
	return result, nil
}

// storeSnapshot caps the earned compensation and upserts the snapshot. It
// returns the hours dropped by the cap.
func (s *TimeService) storeSnapshot(ctx context.Context, user *models.User, b timetracking.TimeBalance) (float64, error) {
	current, err := s.repos.Snapshots.AvailableCompensation(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("looking up compensation balance: %w", err)
	}
	// a rerun must not count this week's earlier credit
	previous, err := s.repos.Snapshots.Find(ctx, user.ID, b.Period.Start)
	switch {
	case err == nil:
		current -= previous.CompensationHours
	case !errors.Is(err, repository.ErrNotFound):
		return 0, fmt.Errorf("loading previous snapshot: %w", err)
	}

	snap := balanceToSnapshot(b)
	check := s.calc.CanEarnCompensation(current, b.CompensationHours)
	if !check.Allowed {
		snap.CompensationHours = check.MaxAllowed
		snap.CompensationForfeited = b.CompensationHours - check.MaxAllowed
		s.notify(ctx, user, notifications.TypeBalanceCapReached, map[string]any{
			"Message":   check.Message,
			"Forfeited": snap.CompensationForfeited,
		})
	}

	if err := s.repos.Snapshots.Upsert(ctx, snap); err != nil {
		return 0, fmt.Errorf("storing snapshot of user %d: %w", user.ID, err)
	}
	return snap.CompensationForfeited, nil
}

func shortageData(user *models.User, a timetracking.ShortageAlert) map[string]any {
	return map[string]any{
		"Name":                  user.DisplayName(),
		"ShortageHours":         a.ShortageHours,
		"ActualHours":           a.ActualHours,
		"ExpectedHours":         a.ExpectedHours,
		"ConsecutiveWeeksShort": a.ConsecutiveWeeksShort,
		"SuggestedActions":      a.SuggestedActions,
	}
}
