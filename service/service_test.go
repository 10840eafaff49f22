package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"jobflow/cache"
	"jobflow/models"
	"jobflow/notifications"
	"jobflow/permissions"
	"jobflow/repository"
	"jobflow/testutil"
	"jobflow/timetracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *TimeService
	repos *repository.Repositories
	cache *cache.MemoryCache
	now   time.Time
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := repository.New(testutil.NewTestDB(t), nil)
	mem := cache.NewMemoryCache()
	f := &fixture{
		repos: repos,
		cache: mem,
		now:   time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		ctx:   context.Background(),
	}
	calc := timetracking.NewCalculator(timetracking.DefaultRules(), nil)
	f.svc = New(repos, calc, mem, notifications.NewManager(repos.Notifications, log), log,
		WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) user(t *testing.T, name string, role permissions.Role, teamID *uint) *models.User {
	t.Helper()
	u := &models.User{Username: name, FullName: name, PasswordHash: "x", Role: role, TeamID: teamID}
	require.NoError(t, f.repos.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) team(t *testing.T, name string, manager *models.User) *models.Team {
	t.Helper()
	team := &models.Team{Name: name}
	require.NoError(t, f.repos.Users.CreateTeam(f.ctx, team))
	if manager != nil {
		require.NoError(t, f.repos.Users.AssignManager(f.ctx, manager.ID, team.ID))
	}
	return team
}

func (f *fixture) workDay(t *testing.T, u *models.User, day time.Time, from, to int) *models.TimeEntry {
	t.Helper()
	in := time.Date(day.Year(), day.Month(), day.Day(), from, 0, 0, 0, time.UTC)
	out := time.Date(day.Year(), day.Month(), day.Day(), to, 0, 0, 0, time.UTC)
	e := &models.TimeEntry{UserID: u.ID, ClockIn: in, ClockOut: &out, WorkType: models.WorkRegular}
	require.NoError(t, f.repos.TimeEntries.Create(f.ctx, e))
	return e
}

func (f *fixture) notificationTypes(t *testing.T, u *models.User) []string {
	t.Helper()
	list, err := f.repos.Notifications.ListForUser(f.ctx, u.ID, false)
	require.NoError(t, err)
	var types []string
	for _, n := range list {
		types = append(types, n.Type)
	}
	return types
}

var week2 = timetracking.WeekOf(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))

func TestClockInOut(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", permissions.RoleEmployee, nil)

	_, err := f.svc.ClockOut(f.ctx, alice, 0)
	assert.ErrorIs(t, err, ErrNotClockedIn)

	in, err := f.svc.ClockIn(f.ctx, alice, "support")
	require.NoError(t, err)
	assert.Empty(t, in.Warnings)

	_, err = f.svc.ClockIn(f.ctx, alice, "again")
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)

	f.now = f.now.Add(8 * time.Hour)
	out, err := f.svc.ClockOut(f.ctx, alice, 30)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, out.Hours.Total, 1e-9)
	assert.True(t, out.Break.Valid)
	assert.InDelta(t, 7.5, out.Entry.CalculatedHours, 1e-9)
	assert.False(t, out.Entry.AutoBreakApplied)
	assert.Zero(t, out.Entry.CompensationEarned)
	assert.Empty(t, f.notificationTypes(t, alice))
}

func TestClockOut_BreakViolationAndLoading(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", permissions.RoleEmployee, nil)

	f.now = time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	_, err := f.svc.ClockIn(f.ctx, alice, "")
	require.NoError(t, err)

	f.now = time.Date(2024, 1, 8, 20, 0, 0, 0, time.UTC)
	out, err := f.svc.ClockOut(f.ctx, alice, 10)
	require.NoError(t, err)

	assert.False(t, out.Break.Valid)
	assert.Equal(t, timetracking.CategoryEvening, out.Hours.Category)
	assert.True(t, out.Entry.IsEvening)
	assert.InDelta(t, (480.0-10)/60*0.25, out.Entry.CompensationEarned, 1e-9)
	assert.Equal(t, []string{"BREAK_VIOLATION"}, f.notificationTypes(t, alice))
}

func TestClockIn_RestWarning(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", permissions.RoleEmployee, nil)
	f.workDay(t, alice, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), 14, 23)

	f.now = time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC)
	res, err := f.svc.ClockIn(f.ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "rust")
}

func TestBalance_CachedUntilWrite(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", permissions.RoleEmployee, nil)
	f.workDay(t, alice, week2.Start, 9, 13)

	b, err := f.svc.Balance(f.ctx, alice, week2)
	require.NoError(t, err)
	assert.InDelta(t, 4, b.ActualHours, 1e-9)
	assert.Equal(t, 1, f.cache.Len())

	// written behind the service's back, so the cached value is served
	f.workDay(t, alice, week2.Start.AddDate(0, 0, 1), 9, 13)
	b, err = f.svc.Balance(f.ctx, alice, week2)
	require.NoError(t, err)
	assert.InDelta(t, 4, b.ActualHours, 1e-9)

	f.svc.invalidate(f.ctx, alice.ID)
	b, err = f.svc.Balance(f.ctx, alice, week2)
	require.NoError(t, err)
	assert.InDelta(t, 8, b.ActualHours, 1e-9)

	_, err = f.svc.Balance(f.ctx, alice, timetracking.Period{Start: week2.End, End: week2.Start})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestReport_Visibility(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", permissions.RoleAdmin, nil)
	manager := f.user(t, "manager", permissions.RoleManager, nil)
	team := f.team(t, "Support", manager)
	alice := f.user(t, "alice", permissions.RoleEmployee, &team.ID)
	f.user(t, "bob", permissions.RoleEmployee, nil)

	for _, tc := range []struct {
		viewer *models.User
		users  int
	}{
		{admin, 4},
		{manager, 1},
		{alice, 1},
	} {
		report, err := f.svc.Report(f.ctx, tc.viewer, week2)
		require.NoError(t, err)
		assert.Equal(t, tc.users, report.Summary.UserCount, tc.viewer.Username)
	}

	alerts, err := f.svc.Shortages(f.ctx, manager, week2)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alice.ID, alerts[0].UserID)
}

func TestBulkCompensation(t *testing.T) {
	f := newFixture(t)
	manager := f.user(t, "manager", permissions.RoleManager, nil)
	team := f.team(t, "Support", manager)
	alice := f.user(t, "alice", permissions.RoleEmployee, &team.ID)
	require.NoError(t, f.repos.Snapshots.Upsert(f.ctx, &models.BalanceSnapshot{
		UserID: alice.ID, PeriodStart: week2.Start.AddDate(0, 0, -7), PeriodEnd: week2.Start, CompensationHours: 16,
	}))

	action := timetracking.BulkCompensationAction{
		Dates:       []time.Time{week2.Start.AddDate(0, 0, 14), week2.Start.AddDate(0, 0, 15)},
		HoursPerDay: 8,
		Type:        timetracking.CompensationVacation,
		Reason:      "vakantie",
	}
	res, err := f.svc.RequestBulkCompensation(f.ctx, alice, action)
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	require.Len(t, res.Entries, 2)
	assert.NotZero(t, res.Entries[0].ID)
	assert.Equal(t, []string{"COMPENSATION_REQUESTED"}, f.notificationTypes(t, manager))

	available, err := f.svc.AvailableCompensation(f.ctx, alice)
	require.NoError(t, err)
	assert.InDelta(t, 0, available, 1e-9)

	res, err = f.svc.RequestBulkCompensation(f.ctx, alice, action)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Onvoldoende")

	check, err := f.svc.CheckCompensation(f.ctx, alice, 90)
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.InDelta(t, 80, check.MaxAllowed, 1e-9)
}

func TestCompensationSubject(t *testing.T) {
	f := newFixture(t)
	hr := f.user(t, "hr", permissions.RoleHR, nil)
	manager := f.user(t, "manager", permissions.RoleManager, nil)
	alice := f.user(t, "alice", permissions.RoleEmployee, nil)

	got, err := f.svc.CompensationSubject(f.ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = f.svc.CompensationSubject(f.ctx, hr, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = f.svc.CompensationSubject(f.ctx, manager, alice.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CompensationSubject(f.ctx, hr, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBulkCompensation_TotalCannotUndercount(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", permissions.RoleEmployee, nil)
	require.NoError(t, f.repos.Snapshots.Upsert(f.ctx, &models.BalanceSnapshot{
		UserID: alice.ID, PeriodStart: week2.Start.AddDate(0, 0, -7), PeriodEnd: week2.Start, CompensationHours: 8,
	}))

	var dates []time.Time
	for i := 0; i < 5; i++ {
		dates = append(dates, week2.Start.AddDate(0, 0, 14+i))
	}
	res, err := f.svc.RequestBulkCompensation(f.ctx, alice, timetracking.BulkCompensationAction{
		Dates: dates, HoursPerDay: 8, TotalHours: 1,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.Entries)

	available, err := f.svc.AvailableCompensation(f.ctx, alice)
	require.NoError(t, err)
	assert.InDelta(t, 8, available, 1e-9)
}

func TestBulkCompensation_ConcurrentRequestsCannotOverdraw(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", permissions.RoleEmployee, nil)
	require.NoError(t, f.repos.Snapshots.Upsert(f.ctx, &models.BalanceSnapshot{
		UserID: alice.ID, PeriodStart: week2.Start.AddDate(0, 0, -7), PeriodEnd: week2.Start, CompensationHours: 16,
	}))

	const requests = 4
	results := make([]timetracking.BulkCompensationResult, requests)
	errs := make([]error, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.RequestBulkCompensation(f.ctx, alice, timetracking.BulkCompensationAction{
				Dates:       []time.Time{week2.Start.AddDate(0, 0, 14+2*i), week2.Start.AddDate(0, 0, 15+2*i)},
				HoursPerDay: 8,
			})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Success {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)

	available, err := f.svc.AvailableCompensation(f.ctx, alice)
	require.NoError(t, err)
	assert.InDelta(t, 0, available, 1e-9)
}

func TestApprovals(t *testing.T) {
	f := newFixture(t)
	manager := f.user(t, "manager", permissions.RoleManager, nil)
	other := f.user(t, "other", permissions.RoleManager, nil)
	team := f.team(t, "Support", manager)
	f.team(t, "Sales", other)
	alice := f.user(t, "alice", permissions.RoleEmployee, &team.ID)
	bob := f.user(t, "bob", permissions.RoleEmployee, &team.ID)

	out1 := time.Date(2024, 1, 22, 17, 0, 0, 0, time.UTC)
	out2 := out1.AddDate(0, 0, 1)
	entries := []models.TimeEntry{
		{UserID: alice.ID, ClockIn: out1.Add(-8 * time.Hour), ClockOut: &out1, WorkType: models.WorkCompensationUsed, CalculatedHours: 8, BatchID: "b"},
		{UserID: alice.ID, ClockIn: out2.Add(-8 * time.Hour), ClockOut: &out2, WorkType: models.WorkCompensationUsed, CalculatedHours: 8, BatchID: "b"},
	}
	require.NoError(t, f.repos.TimeEntries.CreateBatch(f.ctx, entries))

	pending, err := f.svc.PendingApprovals(f.ctx, manager)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	pending, err = f.svc.PendingApprovals(f.ctx, other)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.PendingApprovals(f.ctx, bob)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ApproveEntry(f.ctx, bob, entries[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ApproveEntry(f.ctx, other, entries[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := f.svc.ApproveEntry(f.ctx, manager, entries[0].ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	assert.Equal(t, []string{"COMPENSATION_APPROVED"}, f.notificationTypes(t, alice))

	_, err = f.svc.ApproveEntry(f.ctx, manager, entries[0].ID)
	assert.ErrorIs(t, err, ErrNotPending)

	require.NoError(t, f.svc.RejectEntry(f.ctx, manager, entries[1].ID))
	_, err = f.repos.TimeEntries.FindByID(f.ctx, entries[1].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	available, err := f.svc.AvailableCompensation(f.ctx, alice)
	require.NoError(t, err)
	assert.InDelta(t, -8, available, 1e-9)
}

func TestSnapshotWeek_ShortageEscalation(t *testing.T) {
	f := newFixture(t)
	manager := f.user(t, "manager", permissions.RoleManager, nil)
	team := f.team(t, "Support", manager)
	alice := f.user(t, "alice", permissions.RoleEmployee, &team.ID)

	for _, weeksBack := range []int{1, 2} {
		start := week2.Start.AddDate(0, 0, -7*weeksBack)
		require.NoError(t, f.repos.Snapshots.Upsert(f.ctx, &models.BalanceSnapshot{
			UserID: alice.ID, PeriodStart: start, PeriodEnd: start.AddDate(0, 0, 7), ShortageHours: 10, ExpectedHours: 40, ActualHours: 30,
		}))
	}
	for d := 0; d < 4; d++ {
		f.workDay(t, alice, week2.Start.AddDate(0, 0, d), 9, 17)
	}

	res, err := f.svc.SnapshotWeek(f.ctx, week2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Snapshots)

	var aliceAlert *timetracking.ShortageAlert
	for i := range res.Alerts {
		if res.Alerts[i].UserID == alice.ID {
			aliceAlert = &res.Alerts[i]
		}
	}
	require.NotNil(t, aliceAlert)
	assert.Equal(t, 3, aliceAlert.ConsecutiveWeeksShort)
	assert.True(t, aliceAlert.ManagerNotified)
	assert.Equal(t, timetracking.SeverityCritical, aliceAlert.Severity)

	assert.Equal(t, []string{"SHORTAGE_CRITICAL"}, f.notificationTypes(t, alice))
	list, err := f.repos.Notifications.ListForUser(f.ctx, manager.ID, false)
	require.NoError(t, err)
	var titles []string
	for _, n := range list {
		titles = append(titles, n.Title)
	}
	assert.Contains(t, titles, "Kritiek urentekort voor alice")

	snap, err := f.repos.Snapshots.Find(f.ctx, alice.ID, week2.Start)
	require.NoError(t, err)
	assert.InDelta(t, 30, snap.ActualHours, 1e-9)
}

func TestSnapshotWeek_CompensationCap(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", permissions.RoleEmployee, nil)
	prev := week2.Start.AddDate(0, 0, -7)
	require.NoError(t, f.repos.Snapshots.Upsert(f.ctx, &models.BalanceSnapshot{
		UserID: alice.ID, PeriodStart: prev, PeriodEnd: week2.Start, CompensationHours: 79,
	}))
	// 5 x (9h - 30m auto break) = 42.5h, 2.5h overtime
	for d := 0; d < 5; d++ {
		f.workDay(t, alice, week2.Start.AddDate(0, 0, d), 8, 17)
	}

	res, err := f.svc.SnapshotWeek(f.ctx, week2)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, res.Forfeited, 1e-9)
	assert.Empty(t, res.Alerts)

	snap, err := f.repos.Snapshots.Find(f.ctx, alice.ID, week2.Start)
	require.NoError(t, err)
	assert.InDelta(t, 1, snap.CompensationHours, 1e-9)
	assert.InDelta(t, 1.5, snap.CompensationForfeited, 1e-9)
	assert.Equal(t, []string{"BALANCE_CAP_REACHED"}, f.notificationTypes(t, alice))

	// a rerun of the same week yields the same credit
	res, err = f.svc.SnapshotWeek(f.ctx, week2)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, res.Forfeited, 1e-9)
	available, err := f.svc.AvailableCompensation(f.ctx, alice)
	require.NoError(t, err)
	assert.InDelta(t, 80, available, 1e-9)
}
