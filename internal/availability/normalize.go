package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date form used for all slot matching.
const DateLayout = "2006-01-02"

// ClockLayout is the canonical zero-padded 24-hour clock form.
const ClockLayout = "15:04"

var (
	errEmptyDate = errors.New("empty date")
	errEmptyTime = errors.New("empty time")
)

// NormalizeDate converts the date spellings seen on the backend into YYYY-MM-DD.
//
// Accepted inputs: "2025-07-04", "2025-7-4", "2025-07-04T00:00:00Z",
// "7/4/2025" (month first) and "2025/7/4".
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errEmptyDate
	}
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}

	var parts []string
	yearFirst := true
	switch {
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
		yearFirst = len(parts) == 3 && len(parts[0]) == 4
	default:
		parts = strings.Split(s, "-")
	}
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid date format: %s", s)
	}

	yearStr, monthStr, dayStr := parts[0], parts[1], parts[2]
	if !yearFirst {
		monthStr, dayStr, yearStr = parts[0], parts[1], parts[2]
	}
	if len(yearStr) != 4 {
		return "", fmt.Errorf("invalid year: %s", yearStr)
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return "", fmt.Errorf("invalid year: %w", err)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return "", fmt.Errorf("invalid month: %w", err)
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", fmt.Errorf("invalid day: %w", err)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("date out of range: %s", s)
	}
	return t.Format(DateLayout), nil
}

// NormalizeTime converts a clock reading into zero-padded 24-hour HH:MM.
//
// Accepted inputs: "9:0", "09:00", "09:00:00", "9:30 PM" and the clock part
// of "2025-07-04T09:00". Zone suffixes are dropped; only the wall clock is kept.
func NormalizeTime(s string) (string, error) {
	hour, minute, err := parseClock(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

func parseClock(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, errEmptyTime
	}
	if i := strings.LastIndex(s, "T"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexAny(s, "Z+-"); i >= 0 {
		s = s[:i]
	}

	meridiem := ""
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		meridiem = upper[len(upper)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, fmt.Errorf("invalid time format: %s", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute: %w", err)
	}
	if len(parts) == 3 {
		if _, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return 0, 0, fmt.Errorf("invalid second: %w", err)
		}
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("hour out of range: %d", hour)
		}
		switch {
		case meridiem == "PM" && hour != 12:
			hour += 12
		case meridiem == "AM" && hour == 12:
			hour = 0
		}
	}

	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour out of range: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute out of range: %d", minute)
	}
	return hour, minute, nil
}

func parseTimeOnDate(date time.Time, timeStr string) (time.Time, error) {
	hour, minute, err := parseClock(timeStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}
