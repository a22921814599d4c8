// Package booking coordinates slot queries, submissions and client history
// on top of the notary backend.
package booking

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"notaryportal/internal/availability"
	"notaryportal/internal/backend"
	"notaryportal/internal/events"
	"notaryportal/internal/metrics"
	"notaryportal/internal/models"
	"notaryportal/internal/session"
)

// Backend is the subset of the notary backend the service needs.
type Backend interface {
	AvailabilityStatus(ctx context.Context) (*backend.AvailabilityStatus, error)
	QuickSetup(ctx context.Context, hours availability.BusinessHours) error
	Slots(ctx context.Context, date string) ([]availability.TimeSlot, error)
	ListJobs(ctx context.Context, userID string) ([]models.Job, error)
	Job(ctx context.Context, userID, id string) (*models.Job, error)
	SubmitJob(ctx context.Context, req models.JobRequest, idempotencyKey string) (*models.SubmitResult, error)
	SubmitFeedback(ctx context.Context, userID, jobID string, fb models.Feedback) error
}

// HoursProvider returns the current business hours.
type HoursProvider interface {
	Get() availability.BusinessHours
}

// Publisher emits domain events.
type Publisher interface {
	Emit(eventType string, payload any) error
}

type Options struct {
	AutoSetup      bool
	LocalFallback  bool
	MaxAdvanceDays int
	Location       *time.Location
}

// Slot sources reported in SlotsResult and metrics.
const (
	SourceBackend = "backend"
	SourceLocal   = "local"
)

type SlotsResult struct {
	Date     string
	Source   string
	Slots    []availability.AvailableSlot
	Warnings []*availability.ValidationError
}

type Service struct {
	api    Backend
	hours  HoursProvider
	bus    Publisher
	opts   Options
	now    func() time.Time
	logger zerolog.Logger
}

func NewService(api Backend, hours HoursProvider, bus Publisher, opts Options, logger *zerolog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		api:    api,
		hours:  hours,
		bus:    bus,
		opts:   opts,
		now:    time.Now,
		logger: logger.With().Str("component", "booking").Logger(),
	}
}

// Now is the current time in the business location.
func (s *Service) Now() time.Time {
	return s.now().In(s.opts.Location)
}

// AvailableSlots returns the bookable slots on date as seen at now.
//
// Slots and jobs are fetched concurrently. A failed job fetch counts as no
// bookings. A failed slot fetch falls back to locally generated hours when
// enabled.
func (s *Service) AvailableSlots(ctx context.Context, date string, now time.Time) (*SlotsResult, error) {
	normalized, err := availability.NormalizeDate(date)
	if err != nil {
		return nil, invalidf("invalid date: %s", date)
	}
	now = now.In(s.opts.Location)
	day, err := time.ParseInLocation(availability.DateLayout, normalized, now.Location())
	if err != nil {
		return nil, invalidf("invalid date: %s", date)
	}

	if s.opts.AutoSetup {
		s.ensureConfigured(ctx)
	}

	var (
		wg       sync.WaitGroup
		slots    []availability.TimeSlot
		jobs     []models.Job
		slotsErr error
		jobsErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		slots, slotsErr = s.api.Slots(ctx, normalized)
	}()
	go func() {
		defer wg.Done()
		jobs, jobsErr = s.api.ListJobs(ctx, "")
	}()
	wg.Wait()

	if jobsErr != nil {
		s.logger.Warn().Err(jobsErr).Str("date", normalized).Msg("jobs fetch failed; treating as no bookings")
		jobs = nil
	}

	source := SourceBackend
	if slotsErr != nil {
		if !s.opts.LocalFallback {
			return nil, fmt.Errorf("fetch slots for %s: %w", normalized, slotsErr)
		}
		s.logger.Warn().Err(slotsErr).Str("date", normalized).Msg("using local business hours")
		slots, err = availability.Generate(day, s.hours.Get())
		if err != nil {
			return nil, fmt.Errorf("generate slots for %s: %w", normalized, err)
		}
		source = SourceLocal
	}

	res := availability.Reconcile(slots, models.Appointments(jobs), day, now)
	for _, w := range res.Warnings {
		s.logger.Warn().Err(w).Str("date", normalized).Str("record", w.Source).Int("index", w.Index).Msg("skipping malformed record")
	}
	metrics.IncSlotQuery(source)
	metrics.AddSlotWarnings(source, len(res.Warnings))

	return &SlotsResult{
		Date:     normalized,
		Source:   source,
		Slots:    res.Slots,
		Warnings: res.Warnings,
	}, nil
}

func (s *Service) ensureConfigured(ctx context.Context) {
	status, err := s.api.AvailabilityStatus(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("availability status check failed")
		return
	}
	if status.Configured {
		return
	}
	hours := s.hours.Get()
	if err := s.api.QuickSetup(ctx, hours); err != nil {
		s.logger.Error().Err(err).Msg("availability quick setup failed")
		return
	}
	s.logger.Info().Str("office_start", hours.OfficeStart).Str("office_end", hours.OfficeEnd).Msg("availability quick setup posted")
}

// Submit validates a booking form and sends it to the backend. The client
// id always comes from the session.
func (s *Service) Submit(ctx context.Context, sess session.Context, form models.JobRequest, idempotencyKey string) (*models.SubmitResult, error) {
	if err := session.RequireLogin(sess); err != nil {
		return nil, err
	}

	req, err := s.validate(form)
	if err != nil {
		return nil, err
	}
	req.ClientID = sess.UserID

	res, err := s.api.SubmitJob(ctx, req, idempotencyKey)
	if err != nil {
		metrics.IncBookingSubmitted("failed")
		s.logger.Error().Err(err).Str("client_id", sess.UserID).Str("date", req.Date).Str("time", req.Time).Msg("booking submission failed")
		return nil, err
	}

	s.emit(events.BookingSubmitted, events.BookingPayload{
		JobID:    res.Reference(),
		ClientID: sess.UserID,
		Service:  req.Service,
		Urgency:  req.Urgency,
		Date:     req.Date,
		Time:     req.Time,
	})
	return res, nil
}

func (s *Service) validate(form models.JobRequest) (models.JobRequest, error) {
	req := form
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Location = strings.TrimSpace(req.Location)

	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		return req, invalidf("Please select a time slot")
	}
	if req.Name == "" || req.Email == "" || strings.TrimSpace(req.Service) == "" {
		return req, invalidf("Please fill in all required fields")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return req, invalidf("invalid email: %s", req.Email)
	}

	service, err := models.ParseService(req.Service)
	if err != nil {
		return req, invalidf("%s", err.Error())
	}
	req.Service = string(service)

	urgency, err := models.ParseUrgency(req.Urgency)
	if err != nil {
		return req, invalidf("%s", err.Error())
	}
	req.Urgency = string(urgency)

	if req.Date, err = availability.NormalizeDate(req.Date); err != nil {
		return req, invalidf("invalid date: %s", form.Date)
	}
	if req.Time, err = availability.NormalizeTime(req.Time); err != nil {
		return req, invalidf("invalid time: %s", form.Time)
	}

	start, err := time.ParseInLocation(availability.DateLayout+" "+availability.ClockLayout, req.Date+" "+req.Time, s.opts.Location)
	if err != nil {
		return req, invalidf("invalid time: %s", form.Time)
	}
	now := s.Now()
	if !start.After(now) {
		return req, invalidf("selected time slot is in the past")
	}
	if s.opts.MaxAdvanceDays > 0 && start.After(now.AddDate(0, 0, s.opts.MaxAdvanceDays)) {
		return req, invalidf("bookings can be made at most %d days in advance", s.opts.MaxAdvanceDays)
	}
	return req, nil
}

// Bookings returns the client's jobs, newest first.
func (s *Service) Bookings(ctx context.Context, sess session.Context) ([]models.Job, error) {
	if err := session.RequireLogin(sess); err != nil {
		return nil, err
	}
	jobs, err := s.api.ListJobs(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	own := make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.BelongsTo(sess.UserID) {
			own = append(own, j)
		}
	}
	sort.SliceStable(own, func(i, k int) bool {
		return sortKey(own[i]) > sortKey(own[k])
	})
	return own, nil
}

func sortKey(j models.Job) string {
	date, err := availability.NormalizeDate(j.Date)
	if err != nil {
		return ""
	}
	clock, err := availability.NormalizeTime(j.Time)
	if err != nil {
		clock = "00:00"
	}
	return date + "T" + clock
}

// Booking returns one job owned by the client.
func (s *Service) Booking(ctx context.Context, sess session.Context, id string) (*models.Job, error) {
	if err := session.RequireLogin(sess); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidf("booking id is required")
	}
	job, err := s.api.Job(ctx, sess.UserID, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	if !job.BelongsTo(sess.UserID) {
		return nil, &session.AccessDeniedError{Reason: "booking belongs to another client"}
	}
	return job, nil
}

// History returns the client's completed jobs, newest first.
func (s *Service) History(ctx context.Context, sess session.Context) ([]models.Job, error) {
	jobs, err := s.Bookings(ctx, sess)
	if err != nil {
		return nil, err
	}
	done := jobs[:0]
	for _, j := range jobs {
		if j.NormalizedStatus() == models.JobCompleted {
			done = append(done, j)
		}
	}
	return done, nil
}

// SubmitFeedback rates a completed job owned by the client.
func (s *Service) SubmitFeedback(ctx context.Context, sess session.Context, id string, fb models.Feedback) error {
	if fb.Rating < 1 || fb.Rating > 5 {
		return invalidf("rating must be between 1 and 5")
	}
	fb.Feedback = strings.TrimSpace(fb.Feedback)

	job, err := s.Booking(ctx, sess, id)
	if err != nil {
		return err
	}
	if st := job.NormalizedStatus(); st != models.JobCompleted {
		return invalidf("feedback is only accepted for completed bookings")
	}

	if err := s.api.SubmitFeedback(ctx, sess.UserID, id, fb); err != nil {
		return err
	}
	s.emit(events.FeedbackSubmitted, events.FeedbackPayload{JobID: id, ClientID: sess.UserID, Rating: fb.Rating})
	return nil
}

func (s *Service) emit(eventType string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("publish event")
	}
}
