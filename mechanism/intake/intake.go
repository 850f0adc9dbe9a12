// Package intake implements the spin and extend intake mechanisms, one per side of the robot.
package intake

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/team302/mechcore/components/actuator"
	"github.com/team302/mechcore/input"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/telemetry"
)

// Defaults.
const (
	DefaultMaxExtend        = 6.0
	DefaultExtendTolerance  = 0.25
	DefaultRetractThreshold = 0.1
)

// Side is which intake a mechanism is.
type Side string

// Intake sides.
const (
	Left  Side = "left"
	Right Side = "right"
)

// Type returns the mechanism type of the intake on side s.
func (s Side) Type() mechanism.Type {
	if s == Right {
		return mechanism.TypeIntakeRight
	}
	return mechanism.TypeIntakeLeft
}

// Functions returns the operator functions that drive the intake on side s: intake, expel and
// the retract axis.
func (s Side) Functions() (intake, expel, retract input.Function) {
	if s == Right {
		return input.IntakeRight, input.ExpelRight, input.IntakeRetractRight
	}
	return input.IntakeLeft, input.ExpelLeft, input.IntakeRetractLeft
}

// SideForType returns the side of an intake mechanism type.
func SideForType(t mechanism.Type) (Side, error) {
	switch t {
	case mechanism.TypeIntakeLeft:
		return Left, nil
	case mechanism.TypeIntakeRight:
		return Right, nil
	default:
		return "", errors.Errorf("%q is not an intake", t)
	}
}

// Config holds an intake's attributes. Zero fields take the defaults above.
type Config struct {
	MaxExtend        float64 `json:"max_extend,omitempty" mapstructure:"max_extend"`
	ExtendTolerance  float64 `json:"extend_tolerance,omitempty" mapstructure:"extend_tolerance"`
	RetractThreshold float64 `json:"retract_threshold,omitempty" mapstructure:"retract_threshold"`
	// ExtendStart is written to the extend sensor at construction.
	ExtendStart *float64 `json:"extend_start,omitempty" mapstructure:"extend_start"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.MaxExtend < 0 {
		return errors.Errorf("%s: max_extend must not be negative", path)
	}
	if cfg.ExtendTolerance < 0 {
		return errors.Errorf("%s: extend_tolerance must not be negative", path)
	}
	if cfg.RetractThreshold < 0 || cfg.RetractThreshold >= 1 {
		return errors.Errorf("%s: retract_threshold must be in [0, 1)", path)
	}
	return nil
}

func (cfg *Config) maxExtend() float64 {
	if cfg.MaxExtend == 0 {
		return DefaultMaxExtend
	}
	return cfg.MaxExtend
}

func (cfg *Config) retractThreshold() float64 {
	if cfg.RetractThreshold == 0 {
		return DefaultRetractThreshold
	}
	return cfg.RetractThreshold
}

// AxisConfigs returns the spin and extend safety policies. Spin is unbounded; extend travels
// over [0, max_extend] and re-zeros on its reverse limit.
func (cfg *Config) AxisConfigs() (mechanism.AxisConfig, mechanism.AxisConfig) {
	tolerance := cfg.ExtendTolerance
	if tolerance == 0 {
		tolerance = DefaultExtendTolerance
	}
	spin := mechanism.AxisConfig{Name: "Spin"}
	extend := mechanism.AxisConfig{
		Name:            "Extend",
		Unit:            "in",
		Bounded:         true,
		Min:             0,
		Max:             cfg.maxExtend(),
		UseForwardLimit: true,
		UseReverseLimit: true,
		ZeroOnMinSwitch: true,
		Tolerance:       tolerance,
		StartPosition:   cfg.ExtendStart,
	}
	return spin, extend
}

// Deps are an intake's hardware and collaborators. Any of them may be nil.
type Deps struct {
	Spin   actuator.Actuator
	Extend actuator.Actuator
	Sink   telemetry.Sink
	Clock  clock.Clock
	Logger logging.Logger
}

// Intake is the spin (primary) and extend (secondary) mechanism on one side of the robot.
type Intake struct {
	*mechanism.TwoAxis
	side Side
	cfg  Config
}

// New returns the intake on side.
func New(side Side, cfg Config, period time.Duration, deps Deps) (*Intake, error) {
	if side != Left && side != Right {
		return nil, errors.Errorf("unknown intake side %q", side)
	}
	if err := cfg.Validate(string(side.Type())); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewBlankLogger(string(side.Type()))
	}
	spin, extend := cfg.AxisConfigs()
	base, err := mechanism.NewTwoAxis(mechanism.Config{
		Type:      side.Type(),
		Period:    period,
		Primary:   spin,
		Secondary: extend,
	}, deps.Spin, deps.Extend, deps.Sink, deps.Clock, deps.Logger)
	if err != nil {
		return nil, err
	}
	return &Intake{TwoAxis: base, side: side, cfg: cfg}, nil
}

// Side returns which intake this is.
func (i *Intake) Side() Side {
	return i.side
}

// Config returns the intake's attributes.
func (i *Intake) Config() Config {
	return i.cfg
}

// Extension returns how far the intake is extended, in inches.
func (i *Intake) Extension() float64 {
	return i.Position(mechanism.Secondary)
}
