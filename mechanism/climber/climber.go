// Package climber implements the lift and rotate climbing mechanism and its state machine.
package climber

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/team302/mechcore/components/actuator"
	"github.com/team302/mechcore/components/digitalinput"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/telemetry"
)

// Defaults measured on the robot.
const (
	DefaultReachMin        = -1.0
	DefaultReachMax        = 19.25
	DefaultRotateMin       = 0.0
	DefaultRotateMax       = 130.0
	DefaultLiftTolerance   = 0.25
	DefaultRotateTolerance = 0.5
	DefaultDeadband        = 0.05
	DefaultLiftStart       = 50.0
	DefaultRotateStart     = 15.0
	DefaultSettleSec       = 0.5
	DefaultPitchTolerance  = 2.0
)

// Config holds the climber's attributes. Zero fields take the defaults above.
type Config struct {
	ReachMin        *float64 `json:"reach_min,omitempty" mapstructure:"reach_min"`
	ReachMax        *float64 `json:"reach_max,omitempty" mapstructure:"reach_max"`
	RotateMin       *float64 `json:"rotate_min,omitempty" mapstructure:"rotate_min"`
	RotateMax       *float64 `json:"rotate_max,omitempty" mapstructure:"rotate_max"`
	LiftTolerance   float64  `json:"lift_tolerance,omitempty" mapstructure:"lift_tolerance"`
	RotateTolerance float64  `json:"rotate_tolerance,omitempty" mapstructure:"rotate_tolerance"`
	Deadband        float64  `json:"deadband,omitempty" mapstructure:"deadband"`
	LiftStart       *float64 `json:"lift_start,omitempty" mapstructure:"lift_start"`
	RotateStart     *float64 `json:"rotate_start,omitempty" mapstructure:"rotate_start"`

	// AutoSequence lets the auto-climb button step through the bar sequence.
	AutoSequence bool    `json:"auto_sequence,omitempty" mapstructure:"auto_sequence"`
	SettleSec    float64 `json:"settle_sec,omitempty" mapstructure:"settle_sec"`

	// CheckRotation includes the rotate axis in at-target checks. Defaults to true.
	CheckRotation *bool `json:"check_rotation,omitempty" mapstructure:"check_rotation"`
	// CheckPitch includes the robot pitch in at-target checks.
	CheckPitch     bool    `json:"check_pitch,omitempty" mapstructure:"check_pitch"`
	PitchTolerance float64 `json:"pitch_tolerance,omitempty" mapstructure:"pitch_tolerance"`
	// PitchTargets is the expected robot pitch per state key.
	PitchTargets map[string]float64 `json:"pitch_targets,omitempty" mapstructure:"pitch_targets"`
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func nonZero(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if orDefault(cfg.ReachMin, DefaultReachMin) >= orDefault(cfg.ReachMax, DefaultReachMax) {
		return errors.Errorf("%s: reach_min must be below reach_max", path)
	}
	if orDefault(cfg.RotateMin, DefaultRotateMin) >= orDefault(cfg.RotateMax, DefaultRotateMax) {
		return errors.Errorf("%s: rotate_min must be below rotate_max", path)
	}
	for name, v := range map[string]float64{
		"lift_tolerance":   cfg.LiftTolerance,
		"rotate_tolerance": cfg.RotateTolerance,
		"deadband":         cfg.Deadband,
		"settle_sec":       cfg.SettleSec,
		"pitch_tolerance":  cfg.PitchTolerance,
	} {
		if v < 0 {
			return errors.Errorf("%s: %s must not be negative", path, name)
		}
	}
	return nil
}

func (cfg *Config) checkRotation() bool {
	return cfg.CheckRotation == nil || *cfg.CheckRotation
}

func (cfg *Config) deadband() float64 {
	return nonZero(cfg.Deadband, DefaultDeadband)
}

func (cfg *Config) settle() time.Duration {
	return time.Duration(nonZero(cfg.SettleSec, DefaultSettleSec) * float64(time.Second))
}

// AxisConfigs returns the lift and rotate safety policies. The lift re-zeros on its reverse
// limit and on stall; the rotation's minimum is the arm-back switch, which also re-zeros, and
// its maximum is by position only.
func (cfg *Config) AxisConfigs(armBack digitalinput.DigitalInput) (mechanism.AxisConfig, mechanism.AxisConfig) {
	liftStart := orDefault(cfg.LiftStart, DefaultLiftStart)
	rotateStart := orDefault(cfg.RotateStart, DefaultRotateStart)
	lift := mechanism.AxisConfig{
		Name:            "Lift",
		Unit:            "in",
		Bounded:         true,
		Min:             orDefault(cfg.ReachMin, DefaultReachMin),
		Max:             orDefault(cfg.ReachMax, DefaultReachMax),
		UseForwardLimit: true,
		UseReverseLimit: true,
		ZeroOnMinSwitch: true,
		ZeroOnStall:     true,
		Tolerance:       nonZero(cfg.LiftTolerance, DefaultLiftTolerance),
		StartPosition:   &liftStart,
	}
	rotate := mechanism.AxisConfig{
		Name:            "Rotate",
		Unit:            "deg",
		Bounded:         true,
		Min:             orDefault(cfg.RotateMin, DefaultRotateMin),
		Max:             orDefault(cfg.RotateMax, DefaultRotateMax),
		MinSwitch:       armBack,
		ZeroOnMinSwitch: armBack != nil,
		Tolerance:       nonZero(cfg.RotateTolerance, DefaultRotateTolerance),
		StartPosition:   &rotateStart,
	}
	return lift, rotate
}

// PitchSource reports the robot's pitch in degrees.
type PitchSource interface {
	Pitch() float64
}

// Deps are the climber's hardware and collaborators. Any of them may be nil.
type Deps struct {
	Lift    actuator.Actuator
	Rotate  actuator.Actuator
	ArmBack digitalinput.DigitalInput
	Pitch   PitchSource
	Sink    telemetry.Sink
	Clock   clock.Clock
	Logger  logging.Logger
}

// Climber is the lift (primary) and rotate (secondary) mechanism.
type Climber struct {
	*mechanism.TwoAxis
	cfg   Config
	pitch PitchSource
}

// New returns a climber. Its sensors are set to the configured start positions.
func New(cfg Config, period time.Duration, deps Deps) (*Climber, error) {
	if err := cfg.Validate("climber"); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewBlankLogger(string(mechanism.TypeClimber))
	}
	lift, rotate := cfg.AxisConfigs(deps.ArmBack)
	base, err := mechanism.NewTwoAxis(mechanism.Config{
		Type:      mechanism.TypeClimber,
		Period:    period,
		Primary:   lift,
		Secondary: rotate,
	}, deps.Lift, deps.Rotate, deps.Sink, deps.Clock, deps.Logger)
	if err != nil {
		return nil, err
	}
	return &Climber{TwoAxis: base, cfg: cfg, pitch: deps.Pitch}, nil
}

// Config returns the climber's attributes.
func (c *Climber) Config() Config {
	return c.cfg
}

// LiftHeight returns the lift position in inches.
func (c *Climber) LiftHeight() float64 {
	return c.Position(mechanism.Primary)
}

// RotateAngle returns the arm angle in degrees.
func (c *Climber) RotateAngle() float64 {
	return c.Position(mechanism.Secondary)
}

func (c *Climber) pitchReached(key string) bool {
	if c.pitch == nil {
		return true
	}
	tolerance := nonZero(c.cfg.PitchTolerance, DefaultPitchTolerance)
	return math.Abs(c.pitch.Pitch()-c.cfg.PitchTargets[key]) < tolerance
}
