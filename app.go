package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"jobflow/cache"
	"jobflow/calendar"
	"jobflow/config"
	"jobflow/database"
	"jobflow/metrics"
	"jobflow/notifications"
	"jobflow/repository"
	"jobflow/service"
	"jobflow/timetracking"

	"gorm.io/gorm"
)

// app is the wired application shared by the commands.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	db       *gorm.DB
	metrics  *metrics.Metrics
	cache    cache.Cache
	redis    *cache.RedisCache
	holidays *calendar.HolidayCalendar
	repos    *repository.Repositories
	service  *service.TimeService
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	db, err := database.Open(cfg.DatabaseURL, database.LogLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	var c cache.Cache = cache.NewMemoryCache()
	var rc *cache.RedisCache
	if cfg.RedisURL != "" {
		if rc, err = cache.NewRedisCache(ctx, cfg.RedisURL, "jobflow:"); err != nil {
			return nil, err
		}
		c = rc
		log.Info("using redis cache")
	}
	c = cache.WithMetrics(c, m)

	holidays := calendar.NewDutchCalendar()
	if err := holidays.AddDates(cfg.ExtraHolidays); err != nil {
		return nil, fmt.Errorf("extra holidays: %w", err)
	}

	repos := repository.New(db, m)
	notifier := notifications.NewManager(repos.Notifications, log,
		notifications.WithEmail(notifications.LogSender{Channel: "email", Log: log}),
		notifications.WithPush(notifications.LogSender{Channel: "push", Log: log}),
		notifications.WithMetrics(m),
	)
	svc := service.New(repos,
		timetracking.NewCalculator(cfg.Rules, holidays),
		c,
		notifier,
		log,
		service.WithMetrics(m),
		service.WithCacheTTL(cfg.CacheTTL),
		service.WithLocation(cfg.Location()),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		metrics:  m,
		cache:    c,
		redis:    rc,
		holidays: holidays,
		repos:    repos,
		service:  svc,
	}, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
