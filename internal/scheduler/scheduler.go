// Package scheduler runs periodic portal maintenance: warming the backend
// slot cache and probing backend health.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"notaryportal/internal/availability"
	"notaryportal/internal/metrics"
)

// SlotRefresher re-fetches slots for a date and stores them in the cache.
type SlotRefresher interface {
	RefreshSlots(ctx context.Context, date string) ([]availability.TimeSlot, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HoursProvider interface {
	Get() availability.BusinessHours
}

type Config struct {
	WarmupCron string
	WarmupDays int
	HealthCron string
	Location   *time.Location
	// JobTimeout bounds a single run of either job.
	JobTimeout time.Duration
}

type Scheduler struct {
	cfg       Config
	cron      *cron.Cron
	refresher SlotRefresher
	health    HealthChecker
	hours     HoursProvider
	logger    zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	baseCtx context.Context
	running bool
}

func New(cfg Config, refresher SlotRefresher, health HealthChecker, hours HoursProvider, logger zerolog.Logger) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.WarmupDays <= 0 {
		cfg.WarmupDays = 7
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}

	s := &Scheduler{
		cfg:       cfg,
		cron:      cron.New(cron.WithLocation(cfg.Location)),
		refresher: refresher,
		health:    health,
		hours:     hours,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		now:       time.Now,
		baseCtx:   context.Background(),
	}

	if cfg.WarmupCron != "" && refresher != nil {
		if _, err := s.cron.AddFunc(cfg.WarmupCron, s.run("slot_warmup", s.WarmSlots)); err != nil {
			return nil, fmt.Errorf("warmup schedule %q: %w", cfg.WarmupCron, err)
		}
	}
	if cfg.HealthCron != "" && health != nil {
		if _, err := s.cron.AddFunc(cfg.HealthCron, s.run("health_probe", s.ProbeHealth)); err != nil {
			return nil, fmt.Errorf("health schedule %q: %w", cfg.HealthCron, err)
		}
	}
	return s, nil
}

// Start runs the cron loop until Stop is called or ctx ends.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.baseCtx = ctx
	s.mu.Unlock()

	s.logger.Info().
		Str("warmup_cron", s.cfg.WarmupCron).
		Int("warmup_days", s.cfg.WarmupDays).
		Str("health_cron", s.cfg.HealthCron).
		Msg("scheduler started")
	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) run(name string, job func(ctx context.Context) error) func() {
	return func() {
		s.mu.Lock()
		base := s.baseCtx
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(base, s.cfg.JobTimeout)
		defer cancel()

		if err := job(ctx); err != nil {
			s.logger.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		}
	}
}

// WarmSlots refreshes the cached slots for every open day in the warmup window.
func (s *Scheduler) WarmSlots(ctx context.Context) error {
	start := time.Now()
	stats := struct {
		warmed  int
		skipped int
		failed  int
	}{}

	hours := s.hours.Get()
	today := s.now().In(s.cfg.Location)
	for i := 0; i < s.cfg.WarmupDays; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		day := today.AddDate(0, 0, i)
		if !hours.IsOpenOn(day) {
			stats.skipped++
			continue
		}
		date := day.Format(availability.DateLayout)
		if _, err := s.refresher.RefreshSlots(ctx, date); err != nil {
			stats.failed++
			s.logger.Warn().Err(err).Str("date", date).Msg("slot warmup failed")
			continue
		}
		stats.warmed++
	}

	s.logger.Info().
		Int("warmed", stats.warmed).
		Int("skipped", stats.skipped).
		Int("failed", stats.failed).
		Dur("duration", time.Since(start)).
		Msg("slot cache warmed")
	if stats.failed > 0 && stats.warmed == 0 {
		return fmt.Errorf("slot warmup: all %d refreshes failed", stats.failed)
	}
	return nil
}

// ProbeHealth records backend reachability in the backend_up gauge.
func (s *Scheduler) ProbeHealth(ctx context.Context) error {
	err := s.health.HealthCheck(ctx)
	metrics.SetBackendUp(err == nil)
	if err != nil {
		return fmt.Errorf("backend health: %w", err)
	}
	return nil
}
