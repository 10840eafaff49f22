package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"jobflow/cache"
	"jobflow/calendar"
	"jobflow/metrics"
	"jobflow/middleware"
	"jobflow/models"
	"jobflow/notifications"
	"jobflow/permissions"
	"jobflow/repository"
	"jobflow/service"
	"jobflow/testutil"
	"jobflow/timetracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t      *testing.T
	router http.Handler
	repos  *repository.Repositories
	auth   *middleware.Authenticator
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := repository.New(testutil.NewTestDB(t), nil)
	holidays := calendar.NewDutchCalendar()
	ts := &testServer{
		t:     t,
		repos: repos,
		auth:  middleware.NewAuthenticator("test-secret", time.Hour, repos.Users),
		now:   time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
	}
	svc := service.New(repos,
		timetracking.NewCalculator(timetracking.DefaultRules(), holidays),
		cache.NewMemoryCache(),
		notifications.NewManager(repos.Notifications, log),
		log,
		service.WithClock(func() time.Time { return ts.now }))
	ts.router = NewRouter(Deps{
		Repos:            repos,
		Service:          svc,
		Auth:             ts.auth,
		Holidays:         holidays,
		Metrics:          metrics.New(),
		InviteExpiration: 24 * time.Hour,
		Logger:           log,
	})
	return ts
}

func (s *testServer) user(name, password string, role permissions.Role, teamID *uint) *models.User {
	s.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(s.t, err)
	u := &models.User{Username: name, FullName: name, PasswordHash: string(hash), Role: role, TeamID: teamID}
	require.NoError(s.t, s.repos.Users.Create(context.Background(), u))
	u.MustChangePassword = false
	require.NoError(s.t, s.repos.Users.Save(context.Background(), u))
	return u
}

func (s *testServer) do(method, path string, as *models.User, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if as != nil {
		token, err := s.auth.GenerateToken(as)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.user("alice", "secret1", permissions.RoleEmployee, nil)

	rec := s.do(http.MethodPost, "/api/login", nil, loginRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/login", nil, loginRequest{Username: "nobody", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/login", nil, loginRequest{Username: "alice", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	session := decode[sessionResponse](t, rec)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice", session.User.Username)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
}

func TestPasswordChangeRequired(t *testing.T) {
	s := newTestServer(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.User{Username: "admin", FullName: "Administrator", PasswordHash: string(hash), Role: permissions.RoleAdmin, MustChangePassword: true}
	require.NoError(t, s.repos.Users.Create(context.Background(), admin))

	rec := s.do(http.MethodGet, "/api/balance", admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/change-password", admin, changePasswordRequest{
		CurrentPassword: "admin", NewPassword: "abc", ConfirmPassword: "abc",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/change-password", admin, changePasswordRequest{
		CurrentPassword: "admin", NewPassword: "better-pw", ConfirmPassword: "better-pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/balance", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInviteAndRegister(t *testing.T) {
	s := newTestServer(t)
	admin := s.user("admin", "admin-pw", permissions.RoleAdmin, nil)
	employee := s.user("emp", "emp-pw", permissions.RoleEmployee, nil)

	rec := s.do(http.MethodPost, "/api/invites", employee, inviteRequest{FullName: "X", Role: permissions.RoleEmployee})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/invites", admin, inviteRequest{FullName: "New Hire", Role: "BOSS"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/invites", admin, inviteRequest{FullName: "New Hire", Role: permissions.RoleManager})
	require.Equal(t, http.StatusCreated, rec.Code)
	invite := decode[models.Invite](t, rec)

	reg := registerRequest{Code: invite.Code, Username: "newhire", Password: "pw123", ConfirmPassword: "pw123"}
	rec = s.do(http.MethodPost, "/api/register", nil, reg)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[sessionResponse](t, rec)
	assert.Equal(t, permissions.RoleManager, session.User.Role)
	assert.Equal(t, "New Hire", session.User.FullName)
	assert.False(t, session.MustChangePassword)

	reg.Username = "second"
	rec = s.do(http.MethodPost, "/api/register", nil, reg)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/invites", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Invite](t, rec), 1)
}

func TestClockFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.user("alice", "pw123", permissions.RoleEmployee, nil)

	rec := s.do(http.MethodPost, "/api/time/clock-out", alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/time/clock-in", alice, clockInRequest{Description: "werk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/api/time/clock-in", alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	s.now = s.now.Add(8*time.Hour + 30*time.Minute)
	rec = s.do(http.MethodPost, "/api/time/clock-out", alice, clockOutRequest{BreakMinutes: 30})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[service.ClockOutResult](t, rec)
	assert.InDelta(t, 8, out.Hours.Total, 1e-9)
	assert.True(t, out.Break.Valid)

	rec = s.do(http.MethodGet, "/api/time/entries?start=2024-01-08&end=2024-01-14", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.TimeEntry](t, rec), 1)

	rec = s.do(http.MethodGet, "/api/balance?start=2024-01-08&end=2024-01-14", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decode[balanceResponse](t, rec)
	assert.InDelta(t, 8, balance.ActualHours, 1e-9)
	assert.InDelta(t, 32, balance.ShortageHours, 1e-9)
	assert.Equal(t, "8u 0m", balance.Formatted)

	rec = s.do(http.MethodGet, "/api/balance?start=bad", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateBreak(t *testing.T) {
	s := newTestServer(t)
	alice := s.user("alice", "pw123", permissions.RoleEmployee, nil)

	rec := s.do(http.MethodPost, "/api/time/validate-break", alice, validateBreakRequest{
		ClockIn:      time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		ClockOut:     time.Date(2024, 1, 8, 17, 0, 0, 0, time.UTC),
		BreakMinutes: 15,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Break timetracking.BreakValidation `json:"break"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Break.Valid)
	assert.NotEmpty(t, res.Break.Message)
}

func TestCompensationEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.user("alice", "pw123", permissions.RoleEmployee, nil)

	rec := s.do(http.MethodGet, "/api/compensation/check?hours=10", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[timetracking.CompensationCheck](t, rec).Allowed)

	rec = s.do(http.MethodGet, "/api/compensation/check?hours=x", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/compensation/bulk", alice, bulkCompensationRequest{
		Dates: []string{"2024-01-22"}, HoursPerDay: 8, Type: timetracking.CompensationFlex,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, decode[timetracking.BulkCompensationResult](t, rec).Success)

	require.NoError(t, s.repos.Snapshots.Upsert(context.Background(), &models.BalanceSnapshot{
		UserID: alice.ID, PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), CompensationHours: 8,
	}))
	rec = s.do(http.MethodPost, "/api/compensation/bulk", alice, bulkCompensationRequest{
		Dates: []string{"2024-01-22"}, HoursPerDay: 8, Type: timetracking.CompensationFlex,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[timetracking.BulkCompensationResult](t, rec)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.BatchID)
}

func TestCompensationOnBehalf(t *testing.T) {
	s := newTestServer(t)
	hr := s.user("hr", "pw123", permissions.RoleHR, nil)
	alice := s.user("alice", "pw123", permissions.RoleEmployee, nil)
	bob := s.user("bob", "pw123", permissions.RoleEmployee, nil)
	require.NoError(t, s.repos.Snapshots.Upsert(context.Background(), &models.BalanceSnapshot{
		UserID: alice.ID, PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), CompensationHours: 8,
	}))

	rec := s.do(http.MethodPost, "/api/compensation/bulk", bob, bulkCompensationRequest{
		Dates: []string{"2024-01-22"}, HoursPerDay: 8, UserID: alice.ID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/compensation/check?hours=1&user_id="+itoa(alice.ID), bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/compensation/check?hours=80&user_id="+itoa(alice.ID), hr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	check := decode[timetracking.CompensationCheck](t, rec)
	assert.False(t, check.Allowed)
	assert.InDelta(t, 72, check.MaxAllowed, 1e-9)

	rec = s.do(http.MethodPost, "/api/compensation/bulk", hr, bulkCompensationRequest{
		Dates: []string{"2024-01-22"}, HoursPerDay: 8, UserID: alice.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[timetracking.BulkCompensationResult](t, rec)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, alice.ID, res.Entries[0].UserID)

	rec = s.do(http.MethodPost, "/api/compensation/bulk", hr, bulkCompensationRequest{
		Dates: []string{"2024-01-23"}, HoursPerDay: 8, UserID: 9999,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApprovalEndpoints(t *testing.T) {
	s := newTestServer(t)
	manager := s.user("manager", "pw123", permissions.RoleManager, nil)
	team := &models.Team{Name: "Support"}
	require.NoError(t, s.repos.Users.CreateTeam(context.Background(), team))
	require.NoError(t, s.repos.Users.AssignManager(context.Background(), manager.ID, team.ID))
	alice := s.user("alice", "pw123", permissions.RoleEmployee, &team.ID)

	out := time.Date(2024, 1, 22, 17, 0, 0, 0, time.UTC)
	entry := &models.TimeEntry{UserID: alice.ID, ClockIn: out.Add(-8 * time.Hour), ClockOut: &out, WorkType: models.WorkCompensationUsed, CalculatedHours: 8}
	require.NoError(t, s.repos.TimeEntries.Create(context.Background(), entry))

	rec := s.do(http.MethodGet, "/api/approvals", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/approvals", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.TimeEntry](t, rec), 1)

	rec = s.do(http.MethodPost, "/api/approvals/abc/approve", manager, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, "/api/approvals/999/approve", manager, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	path := "/api/approvals/" + itoa(entry.ID)
	rec = s.do(http.MethodPost, path+"/approve", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.TimeEntry](t, rec).Approved)

	rec = s.do(http.MethodPost, path+"/reject", manager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/notifications?unread=true", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Notification](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "COMPENSATION_APPROVED", list[0].Type)

	rec = s.do(http.MethodPost, "/api/notifications/"+itoa(list[0].ID)+"/read", manager, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodPost, "/api/notifications/"+itoa(list[0].ID)+"/read", alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/notifications?unread=true", alice, nil)
	assert.Empty(t, decode[[]models.Notification](t, rec))
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	hr := s.user("hr", "pw123", permissions.RoleHR, nil)
	manager := s.user("manager", "pw123", permissions.RoleManager, nil)
	alice := s.user("alice", "pw123", permissions.RoleEmployee, nil)

	rec := s.do(http.MethodGet, "/api/reports/time", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/reports/time?start=2024-01-08&end=2024-01-14", hr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[timetracking.TimeReport](t, rec)
	assert.Equal(t, 3, report.Summary.UserCount)
	assert.Len(t, report.Alerts, 3)

	rec = s.do(http.MethodGet, "/api/reports/shortages?start=2024-01-08&end=2024-01-14", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]timetracking.ShortageAlert](t, rec), "manager without teams sees nobody")

	rec = s.do(http.MethodGet, "/api/reports/time.csv?start=2024-01-08&end=2024-01-14", manager, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/reports/time.csv?start=2024-01-08&end=2024-01-14", hr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "urenrapport_2024-01-08_2024-01-14.csv")
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, reportHeader, rows[0])
	assert.Equal(t, "alice", rows[1][0])
	assert.Equal(t, "40.00", rows[1][4])

	rec = s.do(http.MethodGet, "/api/reports/time.xlsx?start=2024-01-08&end=2024-01-14", hr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	sheetRows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, sheetRows, 4)
	assert.Equal(t, "Medewerker", sheetRows[0][0])
}

func TestTeams(t *testing.T) {
	s := newTestServer(t)
	admin := s.user("admin", "pw123", permissions.RoleAdmin, nil)
	manager := s.user("manager", "pw123", permissions.RoleManager, nil)
	alice := s.user("alice", "pw123", permissions.RoleEmployee, nil)

	rec := s.do(http.MethodPost, "/api/teams", manager, createTeamRequest{Name: "Support"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/teams", admin, createTeamRequest{Name: "Support"})
	require.Equal(t, http.StatusCreated, rec.Code)
	team := decode[models.Team](t, rec)

	path := "/api/teams/" + itoa(team.ID) + "/managers"
	rec = s.do(http.MethodPost, path, admin, assignManagerRequest{UserID: alice.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, path, admin, assignManagerRequest{UserID: manager.ID})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/teams", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Support"`)

	rec = s.do(http.MethodDelete, path, admin, assignManagerRequest{UserID: manager.ID})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, path, admin, assignManagerRequest{UserID: manager.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = s.do(http.MethodGet, "/api/holidays?year=2024", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHolidays(t *testing.T) {
	s := newTestServer(t)
	alice := s.user("alice", "pw123", permissions.RoleEmployee, nil)

	rec := s.do(http.MethodGet, "/api/holidays?year=2024", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-12-25")

	rec = s.do(http.MethodGet, "/api/holidays?year=abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
