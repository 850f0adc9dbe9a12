// Package mechanism implements the two-actuator mechanism base: per-axis targets turned into
// actuator commands through a control law, with travel bounds, limit switches, stall detection
// and sensor re-zeroing applied on every Update.
package mechanism

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/team302/mechcore/components/digitalinput"
	"github.com/team302/mechcore/control"
)

// Type names a kind of mechanism. A robot has at most one mechanism of each type.
type Type string

// Known mechanism types.
const (
	TypeClimber     Type = "climber"
	TypeIntakeLeft  Type = "intake_left"
	TypeIntakeRight Type = "intake_right"
)

// A Mechanism is driven by exactly one state manager.
type Mechanism interface {
	// Type identifies the mechanism.
	Type() Type

	// UpdateTargets stores new per-axis targets. Called once per state activation.
	UpdateTargets(primary, secondary float64)

	// SetControlParameters selects the control law for each axis. Nil means percent output.
	SetControlParameters(primary, secondary *control.Parameters) error

	// Update runs one actuation step. It is safe to call every cycle, with or without hardware.
	Update()
}

// AxisID selects one of a mechanism's axes.
type AxisID int

// Axes of a two-actuator mechanism.
const (
	Primary AxisID = iota
	Secondary
)

func (id AxisID) String() string {
	if id == Secondary {
		return "secondary"
	}
	return "primary"
}

// AxisConfig is the safety policy for one axis. Positions are in the axis's physical unit.
type AxisConfig struct {
	// Name prefixes the axis's telemetry keys, e.g. "Lift". Unnamed axes use the AxisID.
	Name string `json:"name" mapstructure:"name"`
	// Unit is informational ("in", "deg").
	Unit string `json:"unit,omitempty" mapstructure:"unit"`

	// Bounded enables the Min/Max position thresholds.
	Bounded bool    `json:"bounded,omitempty" mapstructure:"bounded"`
	Min     float64 `json:"min,omitempty" mapstructure:"min"`
	Max     float64 `json:"max,omitempty" mapstructure:"max"`

	// UseForwardLimit treats the actuator's forward limit switch as the max signal.
	UseForwardLimit bool `json:"use_forward_limit,omitempty" mapstructure:"use_forward_limit"`
	// UseReverseLimit treats the actuator's reverse limit switch as the min signal.
	UseReverseLimit bool `json:"use_reverse_limit,omitempty" mapstructure:"use_reverse_limit"`
	// MinSwitch, when set, replaces the reverse limit as the min signal.
	MinSwitch digitalinput.DigitalInput `json:"-" mapstructure:"-"`

	// ZeroOnMinSwitch re-zeros the sensor every cycle the min signal is asserted.
	ZeroOnMinSwitch bool `json:"zero_on_min_switch,omitempty" mapstructure:"zero_on_min_switch"`
	// ZeroOnStall re-zeros the sensor when the actuator stalls while driven toward min.
	ZeroOnStall bool `json:"zero_on_stall,omitempty" mapstructure:"zero_on_stall"`
	// ZeroBaseline is the position written on a re-zero.
	ZeroBaseline float64 `json:"zero_baseline,omitempty" mapstructure:"zero_baseline"`

	// Tolerance is the at-target band used by states.
	Tolerance float64 `json:"tolerance,omitempty" mapstructure:"tolerance"`

	// StartPosition, when set, is written to the sensor at construction.
	StartPosition *float64 `json:"start_position,omitempty" mapstructure:"start_position"`
}

// Validate ensures all parts of the config are valid.
func (cfg *AxisConfig) Validate(path string) error {
	if cfg.Bounded && cfg.Min >= cfg.Max {
		return errors.Errorf("%s: min (%v) must be below max (%v)", path, cfg.Min, cfg.Max)
	}
	if cfg.Tolerance < 0 || math.IsNaN(cfg.Tolerance) {
		return errors.Errorf("%s: tolerance must not be negative", path)
	}
	return nil
}

// Config describes a two-actuator mechanism.
type Config struct {
	Type      Type
	Period    time.Duration
	Primary   AxisConfig
	Secondary AxisConfig
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	if cfg.Type == "" {
		return errors.New("mechanism needs a type")
	}
	if cfg.Period <= 0 {
		return errors.Errorf("mechanism %q needs a positive control period", cfg.Type)
	}
	if err := cfg.Primary.Validate(string(cfg.Type) + ".primary"); err != nil {
		return err
	}
	return cfg.Secondary.Validate(string(cfg.Type) + ".secondary")
}

// ZeroCause records what triggered a re-zero.
type ZeroCause string

// Re-zero triggers.
const (
	ZeroCauseLimitSwitch ZeroCause = "limit_switch"
	ZeroCauseStall       ZeroCause = "stall"
)

// ZeroEvent is one audited overwrite of an axis's sensor position.
type ZeroEvent struct {
	Axis     AxisID
	Cause    ZeroCause
	Before   float64
	Baseline float64
	Time     time.Time
}

// isTowardMin reports whether target would keep an axis at position moving toward its minimum.
// Percent-output targets are commands, so only their sign matters.
func isTowardMin(params *control.Parameters, target, position float64) bool {
	if params.IsPercentOutput() {
		return target <= 0
	}
	return target <= position
}

func isTowardMax(params *control.Parameters, target, position float64) bool {
	if params.IsPercentOutput() {
		return target >= 0
	}
	return target >= position
}
