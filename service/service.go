// Package service ties the calculator to storage, caching and
// notifications. Handlers and the scheduler go through TimeService.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobflow/cache"
	"jobflow/metrics"
	"jobflow/models"
	"jobflow/notifications"
	"jobflow/permissions"
	"jobflow/repository"
	"jobflow/timetracking"
)

var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("not clocked in")
	ErrForbidden        = errors.New("forbidden")
	ErrNotPending       = errors.New("entry is not pending approval")
	ErrInvalidPeriod    = errors.New("period end is before start")
)

const defaultCacheTTL = 5 * time.Minute

type TimeService struct {
	repos    *repository.Repositories
	calc     *timetracking.Calculator
	spender  *timetracking.CompensationSpender
	cache    cache.Cache
	cacheTTL time.Duration
	notifier *notifications.Manager
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
	loc      *time.Location
}

type Option func(*TimeService)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *TimeService) { s.metrics = m }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *TimeService) { s.cacheTTL = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TimeService) { s.now = now }
}

// WithLocation sets the time zone that days and weeks are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *TimeService) { s.loc = loc }
}

func New(repos *repository.Repositories, calc *timetracking.Calculator, c cache.Cache, notifier *notifications.Manager, log *slog.Logger, opts ...Option) *TimeService {
	s := &TimeService{
		repos:    repos,
		calc:     calc,
		spender:  timetracking.NewCompensationSpender(repos.Snapshots),
		cache:    c,
		cacheTTL: defaultCacheTTL,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TimeService) Calculator() *timetracking.Calculator {
	return s.calc
}

// Now returns the current time in the service's location.
func (s *TimeService) Now() time.Time {
	return s.now().In(s.loc)
}

// CurrentWeek is the Monday-to-Sunday week containing now.
func (s *TimeService) CurrentWeek() timetracking.Period {
	return timetracking.WeekOf(s.Now())
}

// PreviousWeek is the full week before the current one.
func (s *TimeService) PreviousWeek() timetracking.Period {
	return timetracking.WeekOf(s.Now().AddDate(0, 0, -7))
}

// visibleUsers returns the users whose time viewer may see.
func (s *TimeService) visibleUsers(ctx context.Context, viewer *models.User) ([]models.User, error) {
	switch {
	case viewer.Can(permissions.ViewAllTime):
		return s.repos.Users.ListActive(ctx, nil)
	case viewer.Can(permissions.ViewTeamTime):
		teamIDs, err := s.repos.Users.ManagedTeamIDs(ctx, viewer.ID)
		if err != nil || len(teamIDs) == 0 {
			return nil, err
		}
		return s.repos.Users.ListActive(ctx, teamIDs)
	}
	return []models.User{*viewer}, nil
}

// canReview reports whether reviewer may approve or reject time of owner.
func (s *TimeService) canReview(ctx context.Context, reviewer, owner *models.User) (bool, error) {
	if !reviewer.Can(permissions.ApproveTime) || reviewer.ID == owner.ID {
		return false, nil
	}
	if reviewer.Can(permissions.ViewAllTime) {
		return true, nil
	}
	if owner.TeamID == nil {
		return false, nil
	}
	teamIDs, err := s.repos.Users.ManagedTeamIDs(ctx, reviewer.ID)
	if err != nil {
		return false, err
	}
	for _, id := range teamIDs {
		if id == *owner.TeamID {
			return true, nil
		}
	}
	return false, nil
}

func balanceKey(userID uint, p timetracking.Period) string {
	return fmt.Sprintf("balance:%d:%d:%d", userID, p.Start.Unix(), p.End.Unix())
}

func (s *TimeService) invalidate(ctx context.Context, userID uint) {
	if err := s.cache.DeletePrefix(ctx, fmt.Sprintf("balance:%d:", userID)); err != nil {
		s.log.Warn("failed to invalidate balance cache", "user_id", userID, "error", err)
	}
}

// notify sends a notification; failures are logged and do not fail the
// calling operation.
func (s *TimeService) notify(ctx context.Context, user *models.User, typ notifications.Type, data map[string]any) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, user, typ, data); err != nil {
		s.log.Error("failed to send notification", "user_id", user.ID, "type", typ, "error", err)
	}
}
