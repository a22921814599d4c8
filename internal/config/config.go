package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"notaryportal/internal/backend"
)

// DefaultPath is used when neither --config nor PORTAL_CONFIG_PATH is set.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		Timezone       string   `yaml:"timezone"`
	} `yaml:"server"`

	Backend struct {
		BaseURL         string  `yaml:"base_url"`
		AuthURL         string  `yaml:"auth_url"`
		APIKey          string  `yaml:"api_key"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		RatePerSecond   float64 `yaml:"rate_per_second"`
		Burst           int     `yaml:"burst"`
		MaxRetries      *int    `yaml:"max_retries"`
		RetryDelaysMS   []int   `yaml:"retry_delays_ms"`
	} `yaml:"backend"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Session struct {
		Secret     string `yaml:"secret"`
		CookieName string `yaml:"cookie_name"`
		TTLHours   int    `yaml:"ttl_hours"`
		Secure     bool   `yaml:"secure"`
	} `yaml:"session"`

	Availability struct {
		HoursPath     string `yaml:"hours_path"`
		AutoSetup     bool   `yaml:"auto_setup"`
		LocalFallback bool   `yaml:"local_fallback"`
		// MaxAdvanceDays caps how far ahead a booking may be placed; zero means no cap.
		MaxAdvanceDays int `yaml:"max_advance_days"`
	} `yaml:"availability"`

	Scheduler struct {
		Enabled    bool   `yaml:"enabled"`
		WarmupCron string `yaml:"warmup_cron"`
		WarmupDays int    `yaml:"warmup_days"`
		HealthCron string `yaml:"health_cron"`
	} `yaml:"scheduler"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configs the portal cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url is required"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("session.secret is required"))
	} else if len(c.Session.Secret) < 16 {
		errs = append(errs, errors.New("session.secret must be at least 16 characters"))
	}
	if c.Availability.MaxAdvanceDays < 0 {
		errs = append(errs, errors.New("availability.max_advance_days must not be negative"))
	}
	if c.Server.Timezone != "" {
		if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("server.timezone: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) ServerPort() int {
	if c.Server.Port <= 0 {
		return 8080
	}
	return c.Server.Port
}

// Location is the business time zone used for "now" in slot queries.
func (c *Config) Location() *time.Location {
	if c.Server.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	if c.Backend.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Backend.CacheTTLSeconds) * time.Second
}

// Retry builds the backend retry policy; unset fields keep the defaults.
func (c *Config) Retry() backend.RetryConfig {
	retry := backend.DefaultRetryConfig()
	if c.Backend.MaxRetries != nil && *c.Backend.MaxRetries >= 0 {
		retry.MaxRetries = *c.Backend.MaxRetries
	}
	if len(c.Backend.RetryDelaysMS) > 0 {
		retry.RetryDelays = make([]time.Duration, len(c.Backend.RetryDelaysMS))
		for i, ms := range c.Backend.RetryDelaysMS {
			retry.RetryDelays[i] = time.Duration(ms) * time.Millisecond
		}
	}
	return retry
}

// BackendOptions assembles client options from the backend section.
func (c *Config) BackendOptions() backend.Options {
	return backend.Options{
		BaseURL:       c.Backend.BaseURL,
		AuthURL:       c.Backend.AuthURL,
		APIKey:        c.Backend.APIKey,
		Timeout:       c.BackendTimeout(),
		Retry:         c.Retry(),
		RatePerSecond: c.Backend.RatePerSecond,
		Burst:         c.Backend.Burst,
	}
}

func (c *Config) SessionCookieName() string {
	if c.Session.CookieName == "" {
		return "notary_session"
	}
	return c.Session.CookieName
}

func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Session.TTLHours) * time.Hour
}

func (c *Config) HoursPath() string {
	if c.Availability.HoursPath == "" {
		return "configs/hours.yaml"
	}
	return c.Availability.HoursPath
}

func (c *Config) WarmupCron() string {
	if c.Scheduler.WarmupCron == "" {
		return "0 6 * * *"
	}
	return c.Scheduler.WarmupCron
}

func (c *Config) WarmupDays() int {
	if c.Scheduler.WarmupDays <= 0 {
		return 7
	}
	return c.Scheduler.WarmupDays
}

func (c *Config) HealthCron() string {
	if c.Scheduler.HealthCron == "" {
		return "@every 1m"
	}
	return c.Scheduler.HealthCron
}

func (c *Config) HealthCheckPort() int {
	if c.Monitoring.HealthCheckPort <= 0 {
		return 8090
	}
	return c.Monitoring.HealthCheckPort
}

func (c *Config) PrometheusPort() int {
	if c.Monitoring.PrometheusPort <= 0 {
		return 9090
	}
	return c.Monitoring.PrometheusPort
}
