// Package models holds the records exchanged with the notary backend.
package models

import (
	"fmt"
	"strings"

	"notaryportal/internal/availability"
)

// JobStatus is the lifecycle status of a job (booking).
type JobStatus = availability.BookingStatus

const (
	JobPending   = availability.StatusPending
	JobAccepted  = availability.StatusAccepted
	JobDeclined  = availability.StatusDeclined
	JobCompleted = availability.StatusCompleted
)

// Urgency is a pricing tier. It never changes scheduling order.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent" // 5-24 hours
	UrgencyRush   Urgency = "rush"   // 0-5 hours
)

// ParseUrgency accepts an urgency name; empty means normal.
func ParseUrgency(s string) (Urgency, error) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case "":
		return UrgencyNormal, nil
	case UrgencyNormal, UrgencyUrgent, UrgencyRush:
		return u, nil
	default:
		return "", fmt.Errorf("unknown urgency: %s", s)
	}
}

// ServiceType is a notarization service offered by the business.
type ServiceType string

const (
	ServiceMobile      ServiceType = "Mobile Notary"
	ServiceOnline      ServiceType = "Online Notary"
	ServiceBusiness    ServiceType = "Business Notary"
	ServiceLoanSigning ServiceType = "Loan Signing"
)

// Services lists the bookable services in display order.
var Services = []ServiceType{ServiceMobile, ServiceOnline, ServiceBusiness, ServiceLoanSigning}

// ParseService matches a service name case-insensitively.
func ParseService(s string) (ServiceType, error) {
	s = strings.TrimSpace(s)
	for _, svc := range Services {
		if strings.EqualFold(string(svc), s) {
			return svc, nil
		}
	}
	return "", fmt.Errorf("unknown service: %s", s)
}

// Job is a client's booking as stored by the backend.
type Job struct {
	ID             FlexID    `json:"id"`
	ClientID       FlexID    `json:"client_id"`
	Name           string    `json:"name,omitempty"`
	Email          string    `json:"email,omitempty"`
	Service        string    `json:"service"`
	Urgency        string    `json:"urgency,omitempty"`
	Status         JobStatus `json:"status"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	Location       string    `json:"location,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	JournalID      string    `json:"journal_id,omitempty"`
	ClientRating   int       `json:"client_rating,omitempty"`
	ClientFeedback string    `json:"client_feedback,omitempty"`
	CreatedAt      string    `json:"created_at,omitempty"`
}

// Appointment projects the job onto the slot it occupies.
func (j Job) Appointment() availability.BookedAppointment {
	return availability.BookedAppointment{Date: j.Date, Time: j.Time, Status: j.Status}
}

// BelongsTo reports whether the job was requested by the given client.
func (j Job) BelongsTo(clientID string) bool {
	return clientID != "" && string(j.ClientID) == clientID
}

// NormalizedStatus lowercases the backend status.
func (j Job) NormalizedStatus() JobStatus {
	return JobStatus(strings.ToLower(strings.TrimSpace(string(j.Status))))
}

// Appointments projects jobs onto booked appointments, preserving order.
func Appointments(jobs []Job) []availability.BookedAppointment {
	out := make([]availability.BookedAppointment, len(jobs))
	for i, j := range jobs {
		out[i] = j.Appointment()
	}
	return out
}

// JobRequest is the body of a new booking submission.
type JobRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Service   string `json:"service"`
	Urgency   string `json:"urgency,omitempty"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Location  string `json:"location"`
	Notes     string `json:"notes,omitempty"`
	JournalID string `json:"journal_id,omitempty"`
}

// SubmitResult is the backend's answer to a booking submission.
type SubmitResult struct {
	ID      FlexID `json:"id,omitempty"`
	JobID   FlexID `json:"job_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// Reference returns whichever id field the backend filled.
func (r SubmitResult) Reference() string {
	if r.JobID != "" {
		return string(r.JobID)
	}
	return string(r.ID)
}

// Feedback is a client's rating of a completed job.
type Feedback struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}
