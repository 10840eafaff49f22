package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobflow/database"
	"jobflow/handlers"
	"jobflow/middleware"
	"jobflow/scheduler"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the weekly snapshot scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := database.SeedDefaultAdmin(a.db, a.log); err != nil {
			return err
		}

		sched, err := scheduler.New(a.service,
			scheduler.WithSchedule(a.cfg.SnapshotSchedule),
			scheduler.WithLocation(a.cfg.Location()),
			scheduler.WithLogger(a.log))
		if err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()

		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		router := handlers.NewRouter(handlers.Deps{
			Repos:            a.repos,
			Service:          a.service,
			Auth:             middleware.NewAuthenticator(a.cfg.JWTSecret, a.cfg.JWTExpiration, a.repos.Users),
			Holidays:         a.holidays,
			Metrics:          a.metrics,
			InviteExpiration: a.cfg.InviteExpiration,
			Logger:           a.log,
			Ping:             sqlDB.Ping,
		})

		srv := &http.Server{
			Addr:              ":" + a.cfg.ServerPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("server starting", "port", a.cfg.ServerPort, "next_snapshot", sched.Next())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
