package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"jobflow/calendar"
	"jobflow/metrics"
	"jobflow/middleware"
	"jobflow/permissions"
	"jobflow/repository"
	"jobflow/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Repos            *repository.Repositories
	Service          *service.TimeService
	Auth             *middleware.Authenticator
	Holidays         *calendar.HolidayCalendar
	Metrics          *metrics.Metrics
	InviteExpiration time.Duration
	Logger           *slog.Logger
	// Ping reports database health for /healthz. Optional.
	Ping func() error
}

func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Repos, d.Auth, d.InviteExpiration, d.Logger)
	teamHandler := NewTeamHandler(d.Repos, d.Logger)
	timeHandler := NewTimeHandler(d.Service)
	reportHandler := NewReportHandler(d.Service, d.Holidays, d.Logger)
	notificationHandler := NewNotificationHandler(d.Repos)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(requestLogger(d.Logger))
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			if err := d.Ping(); err != nil {
				writeError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		router.Handle("/metrics", d.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Middleware)
			r.Use(middleware.RequirePasswordChange("/api/change-password", "/api/logout", "/api/me"))

			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Post("/change-password", authHandler.ChangePassword)

			r.Post("/time/clock-in", timeHandler.ClockIn)
			r.Post("/time/clock-out", timeHandler.ClockOut)
			r.Get("/time/entries", timeHandler.Entries)
			r.Post("/time/validate-break", timeHandler.ValidateBreak)
			r.Get("/balance", timeHandler.Balance)
			r.Get("/compensation/check", timeHandler.CheckCompensation)
			r.Post("/compensation/bulk", timeHandler.BulkCompensation)
			r.Get("/holidays", reportHandler.Holidays)

			r.Get("/notifications", notificationHandler.List)
			r.Post("/notifications/{id}/read", notificationHandler.MarkRead)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(permissions.ApproveTime))
				r.Get("/approvals", timeHandler.Approvals)
				r.Post("/approvals/{id}/approve", timeHandler.Approve)
				r.Post("/approvals/{id}/reject", timeHandler.Reject)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(permissions.ViewReports))
				r.Get("/reports/time", reportHandler.TimeReport)
				r.Get("/reports/shortages", reportHandler.Shortages)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(permissions.ExportReports))
				r.Get("/reports/time.csv", reportHandler.TimeCSV)
				r.Get("/reports/time.xlsx", reportHandler.TimeXLSX)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(permissions.CreateInvites))
				r.Get("/invites", authHandler.ListInvites)
				r.Post("/invites", authHandler.CreateInvite)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(permissions.ManageUsers))
				r.Get("/teams", teamHandler.ListTeams)
				r.Post("/teams", teamHandler.CreateTeam)
				r.Post("/teams/{id}/managers", teamHandler.AssignManager)
				r.Delete("/teams/{id}/managers", teamHandler.RemoveManager)
			})
		})
	})

	return router
}

// requestLogger logs one structured line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()))
		})
	}
}
