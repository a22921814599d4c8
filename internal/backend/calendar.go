package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"notaryportal/internal/availability"
)

// AvailabilityStatus reports whether business hours are configured on the backend.
type AvailabilityStatus struct {
	Configured    bool   `json:"configured"`
	OfficeStart   string `json:"office_start,omitempty"`
	OfficeEnd     string `json:"office_end,omitempty"`
	AvailableDays string `json:"available_days,omitempty"`
}

// CalendarEvent is an entry of the business calendar shown to clients.
type CalendarEvent struct {
	Title     string `json:"title,omitempty"`
	Name      string `json:"name,omitempty"`
	Date      string `json:"date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	Time      string `json:"time,omitempty"`
}

// wireSlot is one slot as the backend sends it. A missing "available" means available.
type wireSlot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Datetime  string `json:"datetime"`
	Available *bool  `json:"available"`
}

func (w wireSlot) toTimeSlot() availability.TimeSlot {
	s := availability.TimeSlot{
		Date:      w.Date,
		Time:      w.Time,
		Available: w.Available == nil || *w.Available,
	}
	if s.Date == "" && w.Datetime != "" {
		s.Date = w.Datetime
	}
	if s.Time == "" && w.Datetime != "" {
		s.Time = w.Datetime
	}
	return s
}

// decodeSlots accepts {"slots":[...]}, a bare array, or {"error": "..."}.
func decodeSlots(raw json.RawMessage) ([]availability.TimeSlot, error) {
	raw = bytes.TrimSpace(raw)
	var wire []wireSlot

	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return []availability.TimeSlot{}, nil
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("decode slots: %w", err)
		}
	default:
		var wrap struct {
			Slots []wireSlot `json:"slots"`
			Error string     `json:"error"`
		}
		if err := json.Unmarshal(raw, &wrap); err != nil {
			return nil, fmt.Errorf("decode slots: %w", err)
		}
		if wrap.Error != "" {
			if isNotConfigured(wrap.Error) {
				return nil, ErrNotConfigured
			}
			return nil, fmt.Errorf("backend slots error: %s", wrap.Error)
		}
		wire = wrap.Slots
	}

	slots := make([]availability.TimeSlot, len(wire))
	for i, w := range wire {
		slots[i] = w.toTimeSlot()
	}
	return slots, nil
}

// Slots fetches the configured candidate slots for a date (YYYY-MM-DD).
func (c *Client) Slots(ctx context.Context, date string) ([]availability.TimeSlot, error) {
	return c.slots(ctx, date, true)
}

// RefreshSlots fetches slots bypassing the cache and stores the fresh copy.
func (c *Client) RefreshSlots(ctx context.Context, date string) ([]availability.TimeSlot, error) {
	return c.slots(ctx, date, false)
}

func (c *Client) slots(ctx context.Context, date string, useCache bool) ([]availability.TimeSlot, error) {
	cacheKey := "slots:" + date
	var slots []availability.TimeSlot

	if useCache && c.readCache(ctx, cacheKey, &slots) {
		return slots, nil
	}

	var raw json.RawMessage
	endpoint := fmt.Sprintf("%s/calendar/slots?date=%s", c.baseURL, url.QueryEscape(date))
	if err := c.get(ctx, "slots", endpoint, "", &raw); err != nil {
		if httpErr, ok := AsHTTPError(err); ok && isNotConfigured(httpErr.Message()) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}

	slots, err := decodeSlots(raw)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, slots)
	return slots, nil
}

// AvailabilityStatus reports whether business hours are configured.
func (c *Client) AvailabilityStatus(ctx context.Context) (*AvailabilityStatus, error) {
	cacheKey := "availability:status"
	var status AvailabilityStatus

	if c.readCache(ctx, cacheKey, &status) {
		return &status, nil
	}

	if err := c.get(ctx, "availability_status", c.endpoint("/calendar/availability/status"), "", &status); err != nil {
		return nil, err
	}
	if status.Configured {
		c.writeCache(ctx, cacheKey, status)
	}
	return &status, nil
}

// QuickSetup configures default business hours on the backend.
func (c *Client) QuickSetup(ctx context.Context, hours availability.BusinessHours) error {
	body := map[string]string{
		"office_start":   hours.OfficeStart,
		"office_end":     hours.OfficeEnd,
		"available_days": hours.DaysString(),
	}
	if err := c.send(ctx, "availability_quick_setup", http.MethodPost, c.endpoint("/calendar/availability/quick-setup"), "", body, nil); err != nil {
		return err
	}
	c.Invalidate(ctx, "availability:status", "slots:*")
	return nil
}

// SaveAvailability replaces the backend business hours.
func (c *Client) SaveAvailability(ctx context.Context, hours availability.BusinessHours) error {
	days := make([]string, 0, len(hours.AvailableDays))
	for _, d := range hours.AvailableDays {
		days = append(days, time.Weekday(d).String()[:3])
	}
	body := map[string]any{
		"officeStart":   hours.OfficeStart,
		"officeEnd":     hours.OfficeEnd,
		"availableDays": days,
	}
	if err := c.send(ctx, "availability_save", http.MethodPost, c.endpoint("/calendar/availability"), "", body, nil); err != nil {
		return err
	}
	c.Invalidate(ctx, "availability:status", "slots:*")
	return nil
}

// CalendarEvents lists the business calendar entries.
func (c *Client) CalendarEvents(ctx context.Context, userID string) ([]CalendarEvent, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "calendar_local", c.endpoint("/calendar/local"), userID, &raw); err != nil {
		return nil, err
	}
	events := []CalendarEvent{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return events, nil
	}
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode calendar events: %w", err)
	}
	return events, nil
}
