package scheduler

import (
	"log/slog"
	"time"
)

// DefaultSchedule runs the weekly snapshot on Monday at 06:00.
const DefaultSchedule = "0 6 * * 1"

type options struct {
	schedule string
	logger   *slog.Logger
	location *time.Location
}

type Option func(*options)

func defaultOptions() options {
	return options{
		schedule: DefaultSchedule,
		logger:   slog.Default(),
		location: time.UTC,
	}
}

// WithSchedule sets the cron expression of the snapshot job.
func WithSchedule(spec string) Option {
	return func(o *options) {
		if spec != "" {
			o.schedule = spec
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLocation sets the time zone the schedule is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}
