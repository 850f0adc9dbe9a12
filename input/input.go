// Package input defines the operator controls the state managers poll each cycle.
package input

import (
	"math"
	"time"

	"github.com/samber/lo"
)

// Function names a logical operator control, independent of which physical button or stick
// provides it.
type Function string

// Climber controls.
const (
	EnableClimber       Function = "ENABLE_CLIMBER"
	ClimbAuto           Function = "CLIMB_AUTO"
	ClimberManualUp     Function = "CLIMBER_MAN_UP"
	ClimberManualDown   Function = "CLIMBER_MAN_DOWN"
	ClimberManualRotate Function = "CLIMBER_MAN_ROTATE"
	ClimberInitialReach Function = "CLIMBER_STATE_INITIAL_REACH"
	ClimberZero         Function = "CLIMBER_STATE_ZERO"
)

// Intake controls.
const (
	IntakeLeft         Function = "INTAKE_LEFT"
	ExpelLeft          Function = "EXPEL_LEFT"
	IntakeRetractLeft  Function = "INTAKE_RETRACT_LEFT"
	IntakeRight        Function = "INTAKE_RIGHT"
	ExpelRight         Function = "EXPEL_RIGHT"
	IntakeRetractRight Function = "INTAKE_RETRACT_RIGHT"
)

var knownFunctions = []Function{
	EnableClimber, ClimbAuto, ClimberManualUp, ClimberManualDown, ClimberManualRotate,
	ClimberInitialReach, ClimberZero,
	IntakeLeft, ExpelLeft, IntakeRetractLeft, IntakeRight, ExpelRight, IntakeRetractRight,
}

// Known reports whether fn is one of the functions above.
func (fn Function) Known() bool {
	return lo.Contains(knownFunctions, fn)
}

// A Source is polled once per control cycle. Unknown functions read as released / zero.
type Source interface {
	IsButtonPressed(fn Function) bool
	AxisValue(fn Function) float64
}

// Reader polls a Source that may not exist. A Reader with no source reports no input.
type Reader struct {
	Source Source
}

// IsButtonPressed reports whether fn is held.
func (r Reader) IsButtonPressed(fn Function) bool {
	if r.Source == nil {
		return false
	}
	return r.Source.IsButtonPressed(fn)
}

// AxisValue returns the position of fn in [-1, 1].
func (r Reader) AxisValue(fn Function) float64 {
	if r.Source == nil {
		return 0
	}
	v := r.Source.AxisValue(fn)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// AnyAxisExceeds reports whether any of fns is deflected past deadband.
func (r Reader) AnyAxisExceeds(deadband float64, fns ...Function) bool {
	for _, fn := range fns {
		if ExceedsDeadband(r.AxisValue(fn), deadband) {
			return true
		}
	}
	return false
}

// ExceedsDeadband reports whether |value| > deadband.
func ExceedsDeadband(value, deadband float64) bool {
	return math.Abs(value) > deadband
}

// EventType is the kind of change a physical control reports.
type EventType uint8

// EventType values.
const (
	All EventType = iota
	Connect
	// Disconnect is sent when the device is unplugged or times out.
	Disconnect
	ButtonDown
	ButtonUp
	ButtonChange
	// PositionChangeAbs reports an absolute axis position, as joysticks do.
	PositionChangeAbs
)

// ControlCode identifies a physical button or axis.
type ControlCode uint32

// Axes.
const (
	AbsoluteX     ControlCode = 1000
	AbsoluteY     ControlCode = 1001
	AbsoluteZ     ControlCode = 1002
	AbsoluteRX    ControlCode = 1003
	AbsoluteRY    ControlCode = 1004
	AbsoluteRZ    ControlCode = 1005
	AbsoluteHat0X ControlCode = 1006
	AbsoluteHat0Y ControlCode = 1007
)

// Buttons.
const (
	ButtonSouth  ControlCode = 2000
	ButtonEast   ControlCode = 2001
	ButtonWest   ControlCode = 2002
	ButtonNorth  ControlCode = 2003
	ButtonLT     ControlCode = 2004
	ButtonRT     ControlCode = 2005
	ButtonLThumb ControlCode = 2006
	ButtonRThumb ControlCode = 2007
	ButtonSelect ControlCode = 2008
	ButtonStart  ControlCode = 2009
	ButtonMenu   ControlCode = 2010
)

// IsAxis reports whether code names an axis rather than a button.
func (code ControlCode) IsAxis() bool {
	return code >= AbsoluteX && code < ButtonSouth
}

// Event is a single change reported by a physical control.
type Event struct {
	Time  time.Time
	Event EventType
	Code  ControlCode
	// Value is 0 or 1 for buttons, -1.0 to +1.0 for axes.
	Value float64
}
