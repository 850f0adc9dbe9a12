// Package actuator defines the motor controllers a mechanism drives: an integrated encoder read in
// raw counts, forward and reverse limit switches, a stall flag and open-loop output.
package actuator

// An Actuator is a motor controller with an integrated position sensor.
//
// Every method must return promptly and must be safe to call when the physical device is
// unreachable, reporting a neutral value instead of failing.
type Actuator interface {
	// Name is the configured name of the controller.
	Name() string

	// Counts returns the raw sensor position.
	Counts() float64

	// CountsPerUnit converts raw counts to the mechanism's physical unit (inches, degrees).
	CountsPerUnit() float64

	// IsForwardLimitClosed reports whether the forward limit switch is asserted.
	IsForwardLimitClosed() bool

	// IsReverseLimitClosed reports whether the reverse limit switch is asserted.
	IsReverseLimitClosed() bool

	// SetSensorPosition overwrites the raw sensor position.
	SetSensorPosition(counts float64)

	// Set commands a normalized output in [-1, 1].
	Set(output float64)

	// StopMotor removes output until the next Set.
	StopMotor()

	// IsStalled reports whether the controller is commanded but not moving.
	IsStalled() bool
}

// Position returns the actuator's position in physical units. A missing actuator or an
// unconfigured conversion reads as zero.
func Position(a Actuator) float64 {
	if a == nil {
		return 0
	}
	perUnit := a.CountsPerUnit()
	if perUnit == 0 {
		return 0
	}
	return a.Counts() / perUnit
}

// UnitsToCounts converts a physical position to raw counts for a.
func UnitsToCounts(a Actuator, units float64) float64 {
	if a == nil {
		return 0
	}
	return units * a.CountsPerUnit()
}
