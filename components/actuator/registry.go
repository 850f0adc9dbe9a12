package actuator

import (
	"math"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/team302/mechcore/logging"
)

// MaxCANID is the highest controller id on the bus.
const MaxCANID = 62

// Config describes one motor controller.
type Config struct {
	Name               string      `json:"name" mapstructure:"name"`
	Model              string      `json:"model" mapstructure:"model"`
	CANID              int         `json:"can_id" mapstructure:"can_id"`
	CountsPerUnit      float64     `json:"counts_per_unit" mapstructure:"counts_per_unit"`
	Inverted           bool        `json:"inverted,omitempty" mapstructure:"inverted"`
	ForwardLimitSwitch bool        `json:"forward_limit_switch,omitempty" mapstructure:"forward_limit_switch"`
	ReverseLimitSwitch bool        `json:"reverse_limit_switch,omitempty" mapstructure:"reverse_limit_switch"`
	StartPosition      float64     `json:"start_position,omitempty" mapstructure:"start_position"`
	MaxUnitsPerSecond  float64     `json:"max_units_per_second,omitempty" mapstructure:"max_units_per_second"`
	HardStopMin        *float64    `json:"hard_stop_min,omitempty" mapstructure:"hard_stop_min"`
	HardStopMax        *float64    `json:"hard_stop_max,omitempty" mapstructure:"hard_stop_max"`
	Stall              StallConfig `json:"stall,omitempty" mapstructure:"stall"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Name == "" {
		return errors.Errorf("%s: actuator needs a name", path)
	}
	if cfg.Model == "" {
		return errors.Errorf("%s: actuator %q needs a model", path, cfg.Name)
	}
	if cfg.CANID < 0 || cfg.CANID > MaxCANID {
		return errors.Wrapf(NewInvalidCANIDError(cfg.CANID), "%s", path)
	}
	if cfg.CountsPerUnit <= 0 || math.IsInf(cfg.CountsPerUnit, 0) || math.IsNaN(cfg.CountsPerUnit) {
		return errors.Errorf("%s: actuator %q needs a positive counts_per_unit", path, cfg.Name)
	}
	if cfg.HardStopMin != nil && cfg.HardStopMax != nil && *cfg.HardStopMin >= *cfg.HardStopMax {
		return errors.Errorf("%s: actuator %q hard_stop_min must be below hard_stop_max", path, cfg.Name)
	}
	return nil
}

// Constructor builds an actuator for a model.
type Constructor func(cfg Config, clk clock.Clock, logger logging.Logger) (Actuator, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register associates a model name with its constructor. Registering the same model twice panics.
func Register(model string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[model]; ok {
		panic(errors.Errorf("actuator model %q already registered", model))
	}
	registry[model] = ctor
}

// Lookup returns the constructor registered for model.
func Lookup(model string) (Constructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := registry[model]
	return ctor, ok
}

// Models lists the registered model names in order.
func Models() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	models := lo.Keys(registry)
	sort.Strings(models)
	return models
}

// Factory creates actuators from config and tracks them by CAN id.
type Factory struct {
	mu          sync.Mutex
	clock       clock.Clock
	logger      logging.Logger
	controllers [MaxCANID + 1]Actuator
}

// NewFactory returns an empty factory.
func NewFactory(clk clock.Clock, logger logging.Logger) *Factory {
	if clk == nil {
		clk = clock.New()
	}
	return &Factory{clock: clk, logger: logger}
}

// Create builds the actuator described by cfg and records it under its CAN id.
func (f *Factory) Create(cfg Config) (Actuator, error) {
	if err := cfg.Validate("actuator"); err != nil {
		return nil, err
	}
	ctor, ok := Lookup(cfg.Model)
	if !ok {
		return nil, NewUnknownModelError(cfg.Model)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing := f.controllers[cfg.CANID]; existing != nil {
		return nil, NewDuplicateCANIDError(cfg.CANID, existing.Name())
	}
	a, err := ctor(cfg, f.clock, f.logger.Sublogger(cfg.Name))
	if err != nil {
		return nil, errors.Wrapf(err, "creating actuator %q", cfg.Name)
	}
	f.controllers[cfg.CANID] = a
	return a, nil
}

// Controller returns the actuator at canID, or nil if there is none.
func (f *Factory) Controller(canID int) Actuator {
	if canID < 0 || canID > MaxCANID {
		f.logger.Errorw("controller lookup failed", "error", NewInvalidCANIDError(canID))
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.controllers[canID]
}
