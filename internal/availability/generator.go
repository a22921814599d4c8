package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BusinessHours describes when the office takes appointments.
type BusinessHours struct {
	OfficeStart   string `yaml:"office_start" json:"office_start"` // "09:00"
	OfficeEnd     string `yaml:"office_end" json:"office_end"`     // "17:00"
	AvailableDays []int  `yaml:"available_days" json:"available_days"`
	SlotMinutes   int    `yaml:"slot_minutes" json:"slot_minutes"`
	BreakStart    string `yaml:"break_start,omitempty" json:"break_start,omitempty"`
	BreakEnd      string `yaml:"break_end,omitempty" json:"break_end,omitempty"`
	// ClosedDates are holidays (YYYY-MM-DD) on which no slots are offered.
	ClosedDates []string `yaml:"closed_dates,omitempty" json:"closed_dates,omitempty"`
}

// DefaultBusinessHours matches the backend quick-setup: 09:00-17:00, Sunday through Friday.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		OfficeStart:   "09:00",
		OfficeEnd:     "17:00",
		AvailableDays: []int{0, 1, 2, 3, 4, 5},
		SlotMinutes:   60,
	}
}

// Validate checks that the hours describe a non-empty working day.
func (h BusinessHours) Validate() error {
	start, err := parseTimeOnDate(time.Time{}, h.OfficeStart)
	if err != nil {
		return fmt.Errorf("office_start: %w", err)
	}
	end, err := parseTimeOnDate(time.Time{}, h.OfficeEnd)
	if err != nil {
		return fmt.Errorf("office_end: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("office_start must be before office_end")
	}
	for _, d := range h.AvailableDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("available_days: invalid weekday %d", d)
		}
	}
	if (h.BreakStart == "") != (h.BreakEnd == "") {
		return fmt.Errorf("break_start and break_end must be set together")
	}
	for _, d := range h.ClosedDates {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return fmt.Errorf("closed_dates: invalid date %q", d)
		}
	}
	return nil
}

// IsOpen reports whether the office works on the given weekday.
func (h BusinessHours) IsOpen(day time.Weekday) bool {
	for _, d := range h.AvailableDays {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// IsOpenOn reports whether the office works on the given date.
func (h BusinessHours) IsOpenOn(date time.Time) bool {
	day := date.Format(DateLayout)
	for _, closed := range h.ClosedDates {
		if closed == day {
			return false
		}
	}
	return h.IsOpen(date.Weekday())
}

// DaysString renders AvailableDays as the comma list the backend expects ("0,1,2").
func (h BusinessHours) DaysString() string {
	parts := make([]string, len(h.AvailableDays))
	for i, d := range h.AvailableDays {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// Generate expands business hours into candidate slots for date.
// A closed weekday or holiday yields no slots.
func Generate(date time.Time, hours BusinessHours) ([]TimeSlot, error) {
	if !hours.IsOpenOn(date) {
		return nil, nil
	}

	if hours.SlotMinutes <= 0 {
		hours.SlotMinutes = 60
	}

	startTime, err := parseTimeOnDate(date, hours.OfficeStart)
	if err != nil {
		return nil, fmt.Errorf("parse office start: %w", err)
	}
	endTime, err := parseTimeOnDate(date, hours.OfficeEnd)
	if err != nil {
		return nil, fmt.Errorf("parse office end: %w", err)
	}

	var breakStart, breakEnd time.Time
	hasBreak := hours.BreakStart != "" && hours.BreakEnd != ""
	if hasBreak {
		if breakStart, err = parseTimeOnDate(date, hours.BreakStart); err != nil {
			return nil, fmt.Errorf("parse break start: %w", err)
		}
		if breakEnd, err = parseTimeOnDate(date, hours.BreakEnd); err != nil {
			return nil, fmt.Errorf("parse break end: %w", err)
		}
	}

	day := date.Format(DateLayout)
	step := time.Duration(hours.SlotMinutes) * time.Minute
	var slots []TimeSlot

	for cursor := startTime; !cursor.Add(step).After(endTime); cursor = cursor.Add(step) {
		if hasBreak && isOverlapping(cursor, cursor.Add(step), breakStart, breakEnd) {
			continue
		}
		slots = append(slots, TimeSlot{
			Date:      day,
			Time:      cursor.Format(ClockLayout),
			Available: true,
		})
	}

	return slots, nil
}

func isOverlapping(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}
