package service

import (
	"context"
	"fmt"

	"jobflow/cache"
	"jobflow/models"
	"jobflow/timetracking"
)

// Entries lists the user's entries clocked in during p.
func (s *TimeService) Entries(ctx context.Context, user *models.User, p timetracking.Period) ([]models.TimeEntry, error) {
	if p.End.Before(p.Start) {
		return nil, ErrInvalidPeriod
	}
	return s.repos.TimeEntries.ListForUserBetween(ctx, user.ID, p.Start, p.End)
}

// Balance computes the user's balance for p. Results are cached until the
// user's entries change.
func (s *TimeService) Balance(ctx context.Context, user *models.User, p timetracking.Period) (timetracking.TimeBalance, error) {
	if p.End.Before(p.Start) {
		return timetracking.TimeBalance{}, ErrInvalidPeriod
	}

	key := balanceKey(user.ID, p)
	var b timetracking.TimeBalance
	hit, err := cache.GetJSON(ctx, s.cache, key, &b)
	if err != nil {
		s.log.Warn("balance cache read failed", "key", key, "error", err)
	}
	if hit {
		return b, nil
	}

	b, err = s.computeBalance(ctx, user, p)
	if err != nil {
		return timetracking.TimeBalance{}, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, b, s.cacheTTL); err != nil {
		s.log.Warn("balance cache write failed", "key", key, "error", err)
	}
	return b, nil
}

func (s *TimeService) computeBalance(ctx context.Context, user *models.User, p timetracking.Period) (timetracking.TimeBalance, error) {
	entries, err := s.repos.TimeEntries.ListForUserBetween(ctx, user.ID, p.Start, p.End)
	if err != nil {
		return timetracking.TimeBalance{}, fmt.Errorf("loading entries of user %d: %w", user.ID, err)
	}
	s.metrics.Calculation("balance")
	return s.calc.CalculateTimeBalance(user.ID, entries, p, user.WeeklyContractHours()), nil
}

// balancesFor computes the balance of every visible user.
func (s *TimeService) balancesFor(ctx context.Context, viewer *models.User, p timetracking.Period) ([]models.User, []timetracking.TimeBalance, error) {
	if p.End.Before(p.Start) {
		return nil, nil, ErrInvalidPeriod
	}
	users, err := s.visibleUsers(ctx, viewer)
	if err != nil {
		return nil, nil, fmt.Errorf("listing users: %w", err)
	}
	balances := make([]timetracking.TimeBalance, 0, len(users))
	for i := range users {
		b, err := s.Balance(ctx, &users[i], p)
		if err != nil {
			return nil, nil, err
		}
		balances = append(balances, b)
	}
	return users, balances, nil
}

// history returns stored weekly balances of users before p.
func (s *TimeService) history(ctx context.Context, users []models.User, p timetracking.Period) ([]timetracking.TimeBalance, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	snaps, err := s.repos.Snapshots.History(ctx, ids, p.Start)
	if err != nil {
		return nil, fmt.Errorf("loading balance history: %w", err)
	}
	out := make([]timetracking.TimeBalance, len(snaps))
	for i := range snaps {
		out[i] = snapshotToBalance(&snaps[i])
	}
	return out, nil
}

// Report builds the time report over every user visible to viewer.
func (s *TimeService) Report(ctx context.Context, viewer *models.User, p timetracking.Period) (timetracking.TimeReport, error) {
	users, balances, err := s.balancesFor(ctx, viewer, p)
	if err != nil {
		return timetracking.TimeReport{}, err
	}
	history, err := s.history(ctx, users, p)
	if err != nil {
		return timetracking.TimeReport{}, err
	}
	s.metrics.Calculation("report")
	return s.calc.GenerateTimeReport(balances, history), nil
}

// Shortages returns the shortage alerts for every user visible to viewer.
func (s *TimeService) Shortages(ctx context.Context, viewer *models.User, p timetracking.Period) ([]timetracking.ShortageAlert, error) {
	users, balances, err := s.balancesFor(ctx, viewer, p)
	if err != nil {
		return nil, err
	}
	history, err := s.history(ctx, users, p)
	if err != nil {
		return nil, err
	}
	s.metrics.Calculation("shortages")
	return s.calc.DetectShortages(balances, history), nil
}

// ReportRows pairs each visible user with their balance, for exports.
func (s *TimeService) ReportRows(ctx context.Context, viewer *models.User, p timetracking.Period) ([]models.User, []timetracking.TimeBalance, error) {
	return s.balancesFor(ctx, viewer, p)
}

func snapshotToBalance(s *models.BalanceSnapshot) timetracking.TimeBalance {
	return timetracking.TimeBalance{
		UserID:                s.UserID,
		Period:                timetracking.Period{Start: s.PeriodStart, End: s.PeriodEnd},
		RegularHours:          s.RegularHours,
		OvertimeHours:         s.OvertimeHours,
		CompensationHours:     s.CompensationHours,
		UsedCompensationHours: s.UsedCompensationHours,
		ShortageHours:         s.ShortageHours,
		ExpectedHours:         s.ExpectedHours,
		ActualHours:           s.ActualHours,
		BreakHours:            s.BreakHours,
		WeekendHours:          s.WeekendHours,
		EveningHours:          s.EveningHours,
		NightHours:            s.NightHours,
		HolidayHours:          s.HolidayHours,
		AutoBreakDeducted:     s.AutoBreakDeducted,
	}
}

func balanceToSnapshot(b timetracking.TimeBalance) *models.BalanceSnapshot {
	return &models.BalanceSnapshot{
		UserID:                b.UserID,
		PeriodStart:           b.Period.Start,
		PeriodEnd:             b.Period.End,
		RegularHours:          b.RegularHours,
		OvertimeHours:         b.OvertimeHours,
		CompensationHours:     b.CompensationHours,
		UsedCompensationHours: b.UsedCompensationHours,
		ShortageHours:         b.ShortageHours,
		ExpectedHours:         b.ExpectedHours,
		ActualHours:           b.ActualHours,
		BreakHours:            b.BreakHours,
		WeekendHours:          b.WeekendHours,
		EveningHours:          b.EveningHours,
		NightHours:            b.NightHours,
		HolidayHours:          b.HolidayHours,
		AutoBreakDeducted:     b.AutoBreakDeducted,
	}
}
