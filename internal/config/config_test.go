package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaryportal/internal/availability"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("PORTAL_TEST_SECRET", "0123456789abcdef0123")
	path := writeFile(t, t.TempDir(), "config.yaml", `
backend:
  base_url: https://backend.example.com
  max_retries: 0
  retry_delays_ms: [10, 20]
session:
  secret: ${PORTAL_TEST_SECRET}
server:
  timezone: America/New_York
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0123456789abcdef0123", cfg.Session.Secret)
	assert.Equal(t, 8080, cfg.ServerPort())
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout())
	assert.Equal(t, time.Duration(0), cfg.CacheTTL())
	assert.Equal(t, "notary_session", cfg.SessionCookieName())
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, "configs/hours.yaml", cfg.HoursPath())
	assert.Equal(t, "0 6 * * *", cfg.WarmupCron())
	assert.Equal(t, 7, cfg.WarmupDays())
	assert.Equal(t, 8090, cfg.HealthCheckPort())
	assert.Equal(t, 9090, cfg.PrometheusPort())
	assert.Equal(t, "America/New_York", cfg.Location().String())

	retry := cfg.Retry()
	assert.Equal(t, 0, retry.MaxRetries)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, retry.RetryDelays)

	opts := cfg.BackendOptions()
	assert.Equal(t, "https://backend.example.com", opts.BaseURL)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr []string
	}{
		{
			name:    "missing everything",
			content: "server:\n  port: 8080\n",
			wantErr: []string{"backend.base_url is required", "session.secret is required"},
		},
		{
			name:    "short secret",
			content: "backend:\n  base_url: http://x\nsession:\n  secret: short\n",
			wantErr: []string{"session.secret must be at least 16 characters"},
		},
		{
			name:    "bad timezone",
			content: "backend:\n  base_url: http://x\nsession:\n  secret: 0123456789abcdef\nserver:\n  timezone: Mars/Base\n",
			wantErr: []string{"server.timezone"},
		},
		{
			name:    "negative advance window",
			content: "backend:\n  base_url: http://x\nsession:\n  secret: 0123456789abcdef\navailability:\n  max_advance_days: -1\n",
			wantErr: []string{"availability.max_advance_days must not be negative"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tt.content)
			_, err := Load(path)
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadHours(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := writeFile(t, dir, "hours.yaml", "hours:\n  office_end: \"15:00\"\n  closed_dates: [\"2025-12-25\"]\n")
		hours, err := LoadHours(path)
		require.NoError(t, err)
		assert.Equal(t, "09:00", hours.OfficeStart)
		assert.Equal(t, "15:00", hours.OfficeEnd)
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, hours.AvailableDays)
		assert.Equal(t, []string{"2025-12-25"}, hours.ClosedDates)
	})

	t.Run("days replaced", func(t *testing.T) {
		path := writeFile(t, dir, "days.yaml", "hours:\n  available_days: [1, 3]\n")
		hours, err := LoadHours(path)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, hours.AvailableDays)
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "hours:\n  office_start: \"18:00\"\n")
		_, err := LoadHours(path)
		assert.ErrorContains(t, err, "office_start must be before office_end")
	})
}

func TestHoursStore_GetReturnsCopy(t *testing.T) {
	store := NewHoursStore(availability.DefaultBusinessHours())

	h := store.Get()
	h.AvailableDays[0] = 6

	assert.Equal(t, 0, store.Get().AvailableDays[0])

	store.Set(availability.BusinessHours{OfficeStart: "10:00", OfficeEnd: "11:00"})
	assert.Equal(t, "10:00", store.Get().OfficeStart)
}

func TestWatchHours_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hours.yaml", "hours:\n  office_start: \"09:00\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []string
	)
	err := WatchHours(ctx, path, zerolog.Nop(), func(h *availability.BusinessHours) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, h.OfficeStart)
	})
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"09:00"}, seen)
	mu.Unlock()

	require.NoError(t, os.WriteFile(path, []byte("hours:\n  office_start: \"10:00\"\n"), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2 && seen[len(seen)-1] == "10:00"
	}, 5*time.Second, 50*time.Millisecond)
}
