package input

import (
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

func TestExceedsDeadband(t *testing.T) {
	for _, tc := range []struct {
		value float64
		want  bool
	}{
		{0.06, true},
		{0.04, false},
		{-0.06, true},
		{-0.04, false},
		{0.05, false},
		{0, false},
		{1, true},
	} {
		test.That(t, ExceedsDeadband(tc.value, 0.05), test.ShouldEqual, tc.want)
	}
}

func TestReaderWithoutSource(t *testing.T) {
	var r Reader
	test.That(t, r.IsButtonPressed(EnableClimber), test.ShouldBeFalse)
	test.That(t, r.AxisValue(ClimberManualUp), test.ShouldEqual, 0.0)
	test.That(t, r.AnyAxisExceeds(0.05, ClimberManualUp, ClimberManualDown), test.ShouldBeFalse)
}

func TestReader(t *testing.T) {
	s := NewStatic()
	r := Reader{Source: s}

	s.SetButton(EnableClimber, true)
	test.That(t, r.IsButtonPressed(EnableClimber), test.ShouldBeTrue)
	test.That(t, r.IsButtonPressed(ClimbAuto), test.ShouldBeFalse)

	s.SetAxis(ClimberManualRotate, 0.06)
	test.That(t, r.AnyAxisExceeds(0.05, ClimberManualUp, ClimberManualDown, ClimberManualRotate), test.ShouldBeTrue)
	s.SetAxis(ClimberManualRotate, 0.04)
	test.That(t, r.AnyAxisExceeds(0.05, ClimberManualUp, ClimberManualDown, ClimberManualRotate), test.ShouldBeFalse)

	s.SetAxis(ClimberManualUp, math.NaN())
	test.That(t, r.AxisValue(ClimberManualUp), test.ShouldEqual, 0.0)

	s.Reset()
	test.That(t, r.IsButtonPressed(EnableClimber), test.ShouldBeFalse)
}

func TestGamepad(t *testing.T) {
	g := NewGamepad(map[ControlCode]Function{
		ButtonSelect: EnableClimber,
		ButtonSouth:  ClimberInitialReach,
		AbsoluteY:    ClimberManualUp,
	})
	test.That(t, AbsoluteY.IsAxis(), test.ShouldBeTrue)
	test.That(t, ButtonSouth.IsAxis(), test.ShouldBeFalse)

	g.HandleEvent(Event{Event: ButtonDown, Code: ButtonSelect, Value: 1})
	g.HandleEvent(Event{Event: ButtonChange, Code: ButtonSouth, Value: 1})
	g.HandleEvent(Event{Event: PositionChangeAbs, Code: AbsoluteY, Value: 1.5})
	g.HandleEvent(Event{Event: ButtonDown, Code: ButtonNorth, Value: 1})

	test.That(t, g.IsButtonPressed(EnableClimber), test.ShouldBeTrue)
	test.That(t, g.IsButtonPressed(ClimberInitialReach), test.ShouldBeTrue)
	test.That(t, g.AxisValue(ClimberManualUp), test.ShouldEqual, 1.0)

	g.HandleEvent(Event{Event: ButtonUp, Code: ButtonSelect})
	test.That(t, g.IsButtonPressed(EnableClimber), test.ShouldBeFalse)

	g.HandleEvent(Event{Event: Disconnect})
	test.That(t, g.IsButtonPressed(ClimberInitialReach), test.ShouldBeFalse)
	test.That(t, g.AxisValue(ClimberManualUp), test.ShouldEqual, 0.0)
}

func TestScript(t *testing.T) {
	clk := clock.NewMock()
	s := NewScript([]Frame{
		{AtSec: 1, Buttons: []Function{EnableClimber, ClimberInitialReach}},
		{AtSec: 0.5, Buttons: []Function{EnableClimber}},
		{AtSec: 2, Axes: map[Function]float64{ClimberManualDown: -0.5}},
	}, clk)

	test.That(t, s.IsButtonPressed(EnableClimber), test.ShouldBeFalse)
	test.That(t, s.Done(), test.ShouldBeFalse)

	clk.Add(500 * time.Millisecond)
	test.That(t, s.IsButtonPressed(EnableClimber), test.ShouldBeTrue)
	test.That(t, s.IsButtonPressed(ClimberInitialReach), test.ShouldBeFalse)

	clk.Add(time.Second)
	test.That(t, s.IsButtonPressed(ClimberInitialReach), test.ShouldBeTrue)

	clk.Add(time.Second)
	test.That(t, s.IsButtonPressed(EnableClimber), test.ShouldBeFalse)
	test.That(t, s.AxisValue(ClimberManualDown), test.ShouldEqual, -0.5)
	test.That(t, s.Done(), test.ShouldBeTrue)

	s.Restart()
	test.That(t, s.AxisValue(ClimberManualDown), test.ShouldEqual, 0.0)

	test.That(t, NewScript(nil, clk).Done(), test.ShouldBeTrue)
}

func TestControlNames(t *testing.T) {
	code, err := ParseControlCode("ButtonSouth")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, code, test.ShouldEqual, ButtonSouth)
	test.That(t, AbsoluteHat0Y.String(), test.ShouldEqual, "AbsoluteHat0Y")
	test.That(t, ControlCode(7).String(), test.ShouldEqual, "ControlCode(7)")
	_, err = ParseControlCode("ButtonTurbo")
	test.That(t, err, test.ShouldNotBeNil)

	et, err := ParseEventType("PositionChangeAbs")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, et, test.ShouldEqual, PositionChangeAbs)
	test.That(t, ButtonDown.String(), test.ShouldEqual, "ButtonDown")
	_, err = ParseEventType("Wiggle")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParseMapping(t *testing.T) {
	mapping, err := ParseMapping(map[string]Function{
		"ButtonLT":  IntakeLeft,
		"AbsoluteZ": IntakeRetractLeft,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mapping, test.ShouldResemble, map[ControlCode]Function{
		ButtonLT:  IntakeLeft,
		AbsoluteZ: IntakeRetractLeft,
	})

	_, err = ParseMapping(map[string]Function{
		"ButtonTurbo": IntakeLeft,
		"ButtonRT":    "JUMP",
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown control "ButtonTurbo"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown function "JUMP"`)
}

func TestReplay(t *testing.T) {
	clk := clock.NewMock()
	pad := NewGamepad(map[ControlCode]Function{
		ButtonLT:  IntakeLeft,
		AbsoluteZ: IntakeRetractLeft,
	})
	r, err := NewReplay(pad, []TimedEvent{
		{AtSec: 1, Event: "ButtonUp", Control: "ButtonLT"},
		{AtSec: 0.5, Event: "ButtonDown", Control: "ButtonLT", Value: 1},
		{AtSec: 1.5, Event: "PositionChangeAbs", Control: "AbsoluteZ", Value: 0.8},
		{AtSec: 2, Event: "Disconnect"},
	}, clk)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Gamepad(), test.ShouldEqual, pad)

	test.That(t, r.IsButtonPressed(IntakeLeft), test.ShouldBeFalse)
	clk.Add(500 * time.Millisecond)
	test.That(t, r.IsButtonPressed(IntakeLeft), test.ShouldBeTrue)
	clk.Add(time.Second)
	test.That(t, r.IsButtonPressed(IntakeLeft), test.ShouldBeFalse)
	test.That(t, r.AxisValue(IntakeRetractLeft), test.ShouldEqual, 0.8)
	test.That(t, r.Done(), test.ShouldBeFalse)
	clk.Add(time.Second)
	test.That(t, r.AxisValue(IntakeRetractLeft), test.ShouldEqual, 0.0)
	test.That(t, r.Done(), test.ShouldBeTrue)

	_, err = NewReplay(pad, []TimedEvent{{AtSec: 0, Event: "ButtonDown", Control: "ButtonTurbo"}}, clk)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "event 0")
	_, err = NewReplay(pad, []TimedEvent{{AtSec: -1, Event: "Connect"}}, clk)
	test.That(t, err, test.ShouldNotBeNil)
}
