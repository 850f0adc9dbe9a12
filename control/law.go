// Package control implements the control laws that turn a measured value and a target into a
// normalized actuator command in [-1, 1].
package control

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Law maps a measured value and a target to an output command in [-1, 1].
type Law interface {
	// Calculate returns the next command for the given measurement and target.
	Calculate(current, target float64) float64

	// Reset clears any accumulated state (integrators, ramp history).
	Reset()
}

// NewLaw builds the law described by params for a loop running every period. A nil params
// yields a percent-output law.
func NewLaw(params *Parameters, period time.Duration) (Law, error) {
	if params == nil {
		return Passthrough{}, nil
	}
	if err := params.Validate(""); err != nil {
		return nil, err
	}

	var law Law
	switch params.Mode {
	case ModePercentOutput, "":
		law = Passthrough{}
	case ModePositionBangBang:
		law = NewBangBang(params.Tolerance)
	case ModePositionPID:
		pid, err := NewPID(*params, period)
		if err != nil {
			return nil, err
		}
		law = pid
	default:
		return nil, NewUnsupportedModeError(params.Mode)
	}

	if params.RampSeconds > 0 {
		return NewRamp(law, params.RampSeconds, period)
	}
	return law, nil
}

// NewUnsupportedModeError returns the error for a control mode no law implements.
func NewUnsupportedModeError(mode Mode) error {
	return errors.Errorf("unsupported control mode %q", mode)
}

// Passthrough is the percent-output law: the target is the command.
type Passthrough struct{}

// Calculate returns target clamped to [-1, 1].
func (Passthrough) Calculate(current, target float64) float64 {
	return Clamp(target, -1, 1)
}

// Reset is a no-op.
func (Passthrough) Reset() {}

// Clamp limits v to [lo, hi]. NaN clamps to 0.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
