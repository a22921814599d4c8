package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"notaryportal/internal/availability"
)

// HoursFile is the root of hours.yaml.
type HoursFile struct {
	Hours availability.BusinessHours `yaml:"hours"`
}

// LoadHours loads and validates business hours. Fields missing from the
// file keep the quick-setup defaults.
func LoadHours(path string) (*availability.BusinessHours, error) {
	if path == "" {
		path = "configs/hours.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hours config: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	file := HoursFile{Hours: availability.DefaultBusinessHours()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse hours config: %w", err)
	}
	if err := file.Hours.Validate(); err != nil {
		return nil, fmt.Errorf("validate hours config: %w", err)
	}
	return &file.Hours, nil
}

// HoursStore holds the current business hours for concurrent readers.
type HoursStore struct {
	mu    sync.RWMutex
	hours availability.BusinessHours
}

func NewHoursStore(initial availability.BusinessHours) *HoursStore {
	return &HoursStore{hours: initial}
}

// Get returns a copy of the current hours.
func (s *HoursStore) Get() availability.BusinessHours {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.hours
	h.AvailableDays = append([]int(nil), s.hours.AvailableDays...)
	h.ClosedDates = append([]string(nil), s.hours.ClosedDates...)
	return h
}

func (s *HoursStore) Set(h availability.BusinessHours) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hours = h
}
