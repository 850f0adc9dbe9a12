// Package digitalinput defines on/off sensors such as the climber's arm-back switch.
package digitalinput

import (
	"sync"

	"github.com/pkg/errors"
)

// A DigitalInput reports a single switch. Get must return promptly and read false when the
// device is unreachable.
type DigitalInput interface {
	Name() string
	Get() bool
}

// Config describes one digital input.
type Config struct {
	Name     string `json:"name" mapstructure:"name"`
	Channel  int    `json:"channel" mapstructure:"channel"`
	Inverted bool   `json:"inverted,omitempty" mapstructure:"inverted"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Name == "" {
		return errors.Errorf("%s: digital input needs a name", path)
	}
	if cfg.Channel < 0 {
		return errors.Errorf("%s: digital input %q has negative channel %d", path, cfg.Name, cfg.Channel)
	}
	return nil
}

// Get reads in, treating a nil input as open.
func Get(in DigitalInput) bool {
	if in == nil {
		return false
	}
	return in.Get()
}

// Static is a settable digital input used in simulation and tests.
type Static struct {
	mu       sync.Mutex
	name     string
	inverted bool
	value    bool
}

// NewStatic returns an open input described by cfg.
func NewStatic(cfg Config) *Static {
	return &Static{name: cfg.Name, inverted: cfg.Inverted}
}

// Name returns the configured name.
func (s *Static) Name() string {
	return s.name
}

// Get returns the raw value, flipped for inverted inputs.
func (s *Static) Get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value != s.inverted
}

// Set changes the raw value.
func (s *Static) Set(value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
}
