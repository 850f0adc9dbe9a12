package control

import (
	"math"

	"github.com/pkg/errors"
)

// Mode selects which law interprets a state's target.
type Mode string

const (
	// ModePercentOutput drives the actuator with the target as a raw command.
	ModePercentOutput Mode = "percent_output"
	// ModePositionPID closes the loop on position with a PID.
	ModePositionPID Mode = "position_pid"
	// ModePositionBangBang closes the loop on position with a bang-bang law.
	ModePositionBangBang Mode = "position_bang_bang"
)

// Parameters is the tunable set pushed into a mechanism axis when a state is entered.
type Parameters struct {
	Mode          Mode    `json:"mode" mapstructure:"mode"`
	Kp            float64 `json:"kp,omitempty" mapstructure:"kp"`
	Ki            float64 `json:"ki,omitempty" mapstructure:"ki"`
	Kd            float64 `json:"kd,omitempty" mapstructure:"kd"`
	F             float64 `json:"f,omitempty" mapstructure:"f"`
	Tolerance     float64 `json:"tolerance,omitempty" mapstructure:"tolerance"`
	PeakOutput    float64 `json:"peak_output,omitempty" mapstructure:"peak_output"`
	IntegralLimit float64 `json:"integral_limit,omitempty" mapstructure:"integral_limit"`
	RampSeconds   float64 `json:"ramp_seconds,omitempty" mapstructure:"ramp_seconds"`
}

// PercentOutput returns parameters for an open-loop axis.
func PercentOutput() *Parameters {
	return &Parameters{Mode: ModePercentOutput}
}

// IsPercentOutput reports whether targets under these parameters are raw commands rather than
// positions.
func (p *Parameters) IsPercentOutput() bool {
	return p == nil || p.Mode == ModePercentOutput || p.Mode == ""
}

// Peak returns the configured output magnitude limit, defaulting to 1.
func (p *Parameters) Peak() float64 {
	if p == nil || p.PeakOutput == 0 {
		return 1
	}
	return p.PeakOutput
}

// Validate ensures the parameters describe a usable law. path prefixes error messages.
func (p *Parameters) Validate(path string) error {
	if path != "" {
		path += ": "
	}
	switch p.Mode {
	case ModePercentOutput, ModePositionPID, ModePositionBangBang, "":
	default:
		return errors.Errorf("%s%v", path, NewUnsupportedModeError(p.Mode))
	}
	for name, v := range map[string]float64{
		"kp": p.Kp, "ki": p.Ki, "kd": p.Kd, "f": p.F,
		"tolerance": p.Tolerance, "peak_output": p.PeakOutput,
		"integral_limit": p.IntegralLimit, "ramp_seconds": p.RampSeconds,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("%s%s must be finite", path, name)
		}
	}
	if p.PeakOutput < 0 || p.PeakOutput > 1 {
		return errors.Errorf("%speak_output must be within [0, 1], got %v", path, p.PeakOutput)
	}
	if p.IntegralLimit < 0 {
		return errors.Errorf("%sintegral_limit cannot be negative", path)
	}
	if p.RampSeconds < 0 {
		return errors.Errorf("%sramp_seconds cannot be negative", path)
	}
	if p.Mode == ModePositionPID && p.Kp == 0 && p.Ki == 0 && p.Kd == 0 {
		return errors.Errorf("%spid should have at least one of kp, ki or kd", path)
	}
	return nil
}
