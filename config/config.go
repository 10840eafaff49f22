package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"jobflow/timetracking"

	"github.com/spf13/viper"
)

type Config struct {
	Environment      string                        `mapstructure:"environment"`
	DatabaseURL      string                        `mapstructure:"database_url"`
	JWTSecret        string                        `mapstructure:"jwt_secret"`
	JWTExpiration    time.Duration                 `mapstructure:"jwt_expiration"`
	ServerPort       string                        `mapstructure:"server_port"`
	InviteExpiration time.Duration                 `mapstructure:"invite_expiration"`
	RedisURL         string                        `mapstructure:"redis_url"`
	CacheTTL         time.Duration                 `mapstructure:"cache_ttl"`
	LogLevel         string                        `mapstructure:"log_level"`
	Timezone         string                        `mapstructure:"timezone"`
	SnapshotSchedule string                        `mapstructure:"snapshot_schedule"`
	ExtraHolidays    []string                      `mapstructure:"extra_holidays"`
	Rules            timetracking.WorkingTimeRules `mapstructure:"rules"`
}

// Load reads defaults, then the optional config file (JOBFLOW_CONFIG or
// ./jobflow.yaml), then environment variables. Nested keys map to env names
// with underscores, e.g. rules.shortage_threshold -> RULES_SHORTAGE_THRESHOLD.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path := os.Getenv("JOBFLOW_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("jobflow")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("database_url", "postgresql://postgres@localhost:5432/jobflow")
	v.SetDefault("jwt_secret", "your-super-secret-key-change-in-production")
	v.SetDefault("jwt_expiration", 24*time.Hour)
	v.SetDefault("server_port", "8080")
	v.SetDefault("invite_expiration", 7*24*time.Hour) // 7 days
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", 5*time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "Europe/Amsterdam")
	v.SetDefault("snapshot_schedule", "0 6 * * 1")
	v.SetDefault("extra_holidays", []string{})

	r := timetracking.DefaultRules()
	v.SetDefault("rules.standard_working_hours", r.StandardWorkingHours)
	v.SetDefault("rules.overtime_threshold", r.OvertimeThreshold)
	v.SetDefault("rules.contract_hours_per_week", r.ContractHoursPerWeek)
	v.SetDefault("rules.compensation_time_multiplier", r.CompensationTimeMultiplier)
	v.SetDefault("rules.max_compensation_balance", r.MaxCompensationBalance)
	v.SetDefault("rules.shortage_threshold", r.ShortageThreshold)
	v.SetDefault("rules.break_minimum_minutes", r.BreakMinimumMinutes)
	v.SetDefault("rules.break_required_after_hours", r.BreakRequiredAfterHours)
	v.SetDefault("rules.weekend_multiplier", r.WeekendMultiplier)
	v.SetDefault("rules.evening_multiplier", r.EveningMultiplier)
	v.SetDefault("rules.night_multiplier", r.NightMultiplier)
	v.SetDefault("rules.holiday_multiplier", r.HolidayMultiplier)
	v.SetDefault("rules.auto_break_after_hours", r.AutoBreakAfterHours)
	v.SetDefault("rules.auto_break_minutes", r.AutoBreakMinutes)
	v.SetDefault("rules.max_daily_hours", r.MaxDailyHours)
	v.SetDefault("rules.min_rest_between_shifts", r.MinRestBetweenShifts)
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
