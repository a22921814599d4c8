package events

import (
	"github.com/rs/zerolog"

	"notaryportal/internal/metrics"
)

type BookingPayload struct {
	JobID    string `json:"job_id"`
	ClientID string `json:"client_id"`
	Service  string `json:"service"`
	Urgency  string `json:"urgency,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
}

type FeedbackPayload struct {
	JobID    string `json:"job_id"`
	ClientID string `json:"client_id"`
	Rating   int    `json:"rating"`
}

type ProfilePayload struct {
	ClientID string `json:"client_id"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// RegisterDefaults wires the audit log and metrics subscribers.
func RegisterDefaults(bus *EventBus, logger zerolog.Logger) {
	log := logger.With().Str("component", "audit").Logger()

	bus.Subscribe(BookingSubmitted, func(ev Event) error {
		var p BookingPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		metrics.IncBookingSubmitted("ok")
		log.Info().
			Str("job_id", p.JobID).
			Str("client_id", p.ClientID).
			Str("service", p.Service).
			Str("date", p.Date).
			Str("time", p.Time).
			Msg("booking submitted")
		return nil
	})

	bus.Subscribe(FeedbackSubmitted, func(ev Event) error {
		var p FeedbackPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		metrics.IncFeedbackSubmitted()
		log.Info().
			Str("job_id", p.JobID).
			Str("client_id", p.ClientID).
			Int("rating", p.Rating).
			Msg("feedback submitted")
		return nil
	})

	bus.Subscribe(ProfileUpdated, func(ev Event) error {
		var p ProfilePayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		log.Info().Str("client_id", p.ClientID).Bool("deleted", p.Deleted).Msg("profile updated")
		return nil
	})
}
