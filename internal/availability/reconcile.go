// Package availability decides which appointment slots can be offered to a client.
//
// Slots come from business-hours configuration (remote or local), bookings come
// from existing jobs. Reconcile merges the two for one date query.
package availability

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// BookingStatus is the lifecycle status of a booked appointment.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusDeclined  BookingStatus = "declined"
	StatusCompleted BookingStatus = "completed"
)

// Blocks reports whether a booking in this status occupies its slot.
func (s BookingStatus) Blocks() bool {
	switch BookingStatus(strings.ToLower(strings.TrimSpace(string(s)))) {
	case StatusPending, StatusAccepted:
		return true
	default:
		return false
	}
}

// TimeSlot is a candidate slot produced by business-hours configuration.
type TimeSlot struct {
	Date      string `json:"date,omitempty"` // empty means the query date
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// BookedAppointment is an existing job occupying a date and time.
type BookedAppointment struct {
	Date   string        `json:"date"`
	Time   string        `json:"time"`
	Status BookingStatus `json:"status"`
}

// AvailableSlot is a slot confirmed bookable.
type AvailableSlot struct {
	Date  string    `json:"date"` // YYYY-MM-DD
	Time  string    `json:"time"` // HH:MM
	Start time.Time `json:"start"`
}

// Record sources used in ValidationError.
const (
	SourceSlot    = "slot"
	SourceBooking = "booking"
)

// ValidationError identifies one input record that could not be parsed.
// It is a warning: the record is left out and reconciliation continues.
type ValidationError struct {
	Source string
	Index  int
	Field  string
	Value  string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s[%d]: invalid %s %q: %v", e.Source, e.Index, e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one reconciliation.
type Result struct {
	Slots    []AvailableSlot
	Warnings []*ValidationError
}

// Reconcile returns the candidate slots that can be offered for targetDate.
//
// A slot survives when it is marked available, is not taken by a pending or
// accepted booking and starts strictly after reference whenever either the
// query or the slot falls on the reference day.
// Dates and times on both sides are normalized before matching. Survivors keep
// the input order. reference supplies both "now" and the business location.
func Reconcile(candidates []TimeSlot, booked []BookedAppointment, targetDate, reference time.Time) Result {
	res := Result{Slots: make([]AvailableSlot, 0, len(candidates))}
	if len(candidates) == 0 {
		return res
	}

	loc := reference.Location()
	queryDate := targetDate.Format(DateLayout)
	referenceDate := reference.Format(DateLayout)
	onReferenceDay := queryDate == referenceDate

	taken := make(map[string]struct{}, len(booked))
	for i, b := range booked {
		if !b.Status.Blocks() {
			continue
		}
		date, clock, verr := normalizePair(SourceBooking, i, b.Date, b.Time)
		if verr != nil {
			res.Warnings = append(res.Warnings, verr)
			continue
		}
		taken[date+"T"+clock] = struct{}{}
	}

	for i, s := range candidates {
		if !s.Available {
			continue
		}

		rawDate := s.Date
		if strings.TrimSpace(rawDate) == "" {
			rawDate = queryDate
		}
		date, clock, verr := normalizePair(SourceSlot, i, rawDate, s.Time)
		if verr != nil {
			res.Warnings = append(res.Warnings, verr)
			continue
		}

		if _, ok := taken[date+"T"+clock]; ok {
			continue
		}

		day, _ := time.ParseInLocation(DateLayout, date, loc)
		start, _ := parseTimeOnDate(day, clock)
		if (onReferenceDay || date == referenceDate) && !start.After(reference) {
			continue
		}

		res.Slots = append(res.Slots, AvailableSlot{Date: date, Time: clock, Start: start})
	}

	return res
}

func normalizePair(source string, index int, rawDate, rawTime string) (date, clock string, verr *ValidationError) {
	date, err := NormalizeDate(rawDate)
	if err != nil {
		return "", "", &ValidationError{Source: source, Index: index, Field: "date", Value: rawDate, Err: err}
	}
	clock, err = NormalizeTime(rawTime)
	if err != nil {
		return "", "", &ValidationError{Source: source, Index: index, Field: "time", Value: rawTime, Err: err}
	}
	return date, clock, nil
}

// SortByStart orders slots chronologically in place.
// Reconcile never sorts; callers that need calendar order use this.
func SortByStart(slots []AvailableSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
}

// Times returns the HH:MM part of each slot, handy for pickers.
func Times(slots []AvailableSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}
