package config

import (
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/team302/mechcore/components/actuator"
	_ "github.com/team302/mechcore/components/actuator/register"
	"github.com/team302/mechcore/components/digitalinput"
	"github.com/team302/mechcore/control"
	"github.com/team302/mechcore/input"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/mechanism/climber"
	"github.com/team302/mechcore/mechanism/intake"
	"github.com/team302/mechcore/state"
)

func TestReadSample(t *testing.T) {
	cfg, err := Read("../etc/configs/robot.json5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "../etc/configs/robot.json5")
	test.That(t, cfg.Period(), test.ShouldEqual, 20*time.Millisecond)
	test.That(t, cfg.Actuators, test.ShouldHaveLength, 6)

	lift, ok := cfg.Actuator("lift")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, lift.CANID, test.ShouldEqual, 10)
	test.That(t, *lift.HardStopMax, test.ShouldEqual, 19.5)
	test.That(t, lift.Stall.DurationSec, test.ShouldEqual, 0.25)

	_, ok = cfg.DigitalInput("arm_back")
	test.That(t, ok, test.ShouldBeTrue)

	m, ok := cfg.Mechanism(mechanism.TypeClimber)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, m.Actuators[RoleLift], test.ShouldEqual, "lift")
	test.That(t, m.DigitalInputs[RoleArmBack], test.ShouldEqual, "arm_back")
	climberCfg, ok := m.ConvertedAttributes.(*climber.Config)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, climberCfg.AutoSequence, test.ShouldBeTrue)
	test.That(t, climberCfg.SettleSec, test.ShouldEqual, 0.25)

	m, ok = cfg.Mechanism(mechanism.TypeIntakeRight)
	test.That(t, ok, test.ShouldBeTrue)
	intakeCfg, ok := m.ConvertedAttributes.(*intake.Config)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, intakeCfg.MaxExtend, test.ShouldEqual, 6.0)

	want := []input.Frame{
		{AtSec: 0.5, Buttons: []input.Function{input.EnableClimber, input.IntakeLeft}},
		{AtSec: 1.5, Buttons: []input.Function{input.EnableClimber}, Axes: map[input.Function]float64{input.ClimberManualUp: 0.5}},
	}
	test.That(t, cmp.Diff(want, cfg.InputScript[:2]), test.ShouldBeEmpty)
}

func TestFromReader(t *testing.T) {
	doc := `{
		// minimal intake
		period_ms: 10,
		actuators: [
			{name: "spin", model: "fake", can_id: 1, counts_per_unit: 1},
			{name: "extend", model: "fake", can_id: 2, counts_per_unit: 100, reverse_limit_switch: true},
		],
		mechanisms: [{
			type: "intake_left",
			actuators: {spin: "spin", extend: "extend"},
			states: [
				{key: "INTAKE_INTAKE", primary_target: 1, secondary_target: 4,
				 secondary_control: {mode: "position_pid", kp: 0.5}},
			],
		}],
	}`
	cfg, err := FromReader("", strings.NewReader(doc))
	test.That(t, err, test.ShouldBeNil)

	want := &Config{
		PeriodMS: 10,
		Actuators: []actuator.Config{
			{Name: "spin", Model: "fake", CANID: 1, CountsPerUnit: 1},
			{Name: "extend", Model: "fake", CANID: 2, CountsPerUnit: 100, ReverseLimitSwitch: true},
		},
		Mechanisms: []Mechanism{{
			Type:      mechanism.TypeIntakeLeft,
			Actuators: map[string]string{RoleSpin: "spin", RoleExtend: "extend"},
			States: []state.Definition{{
				Key:              "INTAKE_INTAKE",
				PrimaryTarget:    1,
				SecondaryTarget:  4,
				SecondaryControl: &control.Parameters{Mode: control.ModePositionPID, Kp: 0.5},
			}},
			ConvertedAttributes: &intake.Config{},
		}},
	}
	test.That(t, cmp.Diff(want, cfg), test.ShouldBeEmpty)
	test.That(t, cfg.Period(), test.ShouldEqual, 10*time.Millisecond)

	_, err = FromReader("", strings.NewReader(`{period_ms: `))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode config")

	_, err = Read("does/not/exist.json5")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		PeriodMS: -5,
		Actuators: []actuator.Config{
			{Name: "a", Model: "fake", CANID: 1, CountsPerUnit: 1},
			{Name: "a", Model: "fake", CANID: 1, CountsPerUnit: 1},
			{Name: "b", Model: "stepper", CANID: 3, CountsPerUnit: 1},
			{Name: "c", Model: "fake", CANID: 99, CountsPerUnit: 1},
		},
		DigitalInputs: []digitalinput.Config{{Name: "sw"}, {Name: "sw"}},
		Mechanisms: []Mechanism{
			{Type: "elevator"},
			{Type: mechanism.TypeClimber, Actuators: map[string]string{RoleLift: "missing", RoleSpin: "a"}},
			{Type: mechanism.TypeClimber, Attributes: AttributeMap{"reach_min": 30}},
		},
		InputScript: []input.Frame{{AtSec: -1}},
	}
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	for _, msg := range []string{
		"period_ms must not be negative",
		`duplicate actuator name "a"`,
		`CAN ID 1 is already used by actuator "a"`,
		`model "stepper"`,
		"invalid CAN ID 99",
		`duplicate digital input name "sw"`,
		`unknown mechanism type "elevator"`,
		`climber has no actuator role "spin"`,
		`lift actuator "missing" is not defined`,
		"only one climber mechanism is allowed",
		"reach_min must be below reach_max",
		"input_script.0",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}
	test.That(t, len(multierr.Errors(err)), test.ShouldBeGreaterThanOrEqualTo, 12)
}

func TestGamepad(t *testing.T) {
	cfg, err := Read("../etc/configs/gamepad.json5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Gamepad, test.ShouldNotBeNil)
	test.That(t, cfg.Gamepad.Mapping["ButtonLT"], test.ShouldEqual, input.IntakeLeft)
	test.That(t, cfg.Gamepad.Events, test.ShouldHaveLength, 5)

	clk := clock.NewMock()
	src, err := cfg.InputSource(clk)
	test.That(t, err, test.ShouldBeNil)
	replay, ok := src.(*input.Replay)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, replay.IsButtonPressed(input.IntakeLeft), test.ShouldBeFalse)
	clk.Add(200 * time.Millisecond)
	test.That(t, replay.IsButtonPressed(input.IntakeLeft), test.ShouldBeTrue)
	clk.Add(time.Second)
	test.That(t, replay.IsButtonPressed(input.IntakeLeft), test.ShouldBeFalse)
	test.That(t, replay.AxisValue(input.IntakeRetractLeft), test.ShouldEqual, 1.0)

	// without a gamepad the script is the source
	src, err = (&Config{}).InputSource(clk)
	test.That(t, err, test.ShouldBeNil)
	_, ok = src.(*input.Script)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestGamepadValidate(t *testing.T) {
	cfg := &Config{
		InputScript: []input.Frame{{AtSec: 1}},
		Gamepad: &Gamepad{
			Mapping: map[string]input.Function{"ButtonTurbo": input.IntakeLeft, "ButtonLT": "JUMP"},
			Events: []input.TimedEvent{
				{AtSec: -1, Event: "ButtonDown", Control: "ButtonLT"},
				{AtSec: 1, Event: "Wiggle", Control: "ButtonLT"},
			},
		},
	}
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	for _, msg := range []string{
		`gamepad.mapping: `,
		`unknown control "ButtonTurbo"`,
		`unknown function "JUMP"`,
		"gamepad.events.0: at_sec must not be negative",
		`gamepad.events.1: unknown event type "Wiggle"`,
		"input_script and gamepad cannot both be set",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}

	empty := &Config{Gamepad: &Gamepad{}}
	test.That(t, empty.Validate().Error(), test.ShouldContainSubstring, "gamepad: mapping must not be empty")

	_, err = (&Config{Gamepad: &Gamepad{Mapping: map[string]input.Function{"ButtonTurbo": input.IntakeLeft}}}).InputSource(nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTransformAttributeMap(t *testing.T) {
	cfg, err := TransformAttributeMap[climber.Config](AttributeMap{
		"reach_max":      18.0,
		"check_rotation": false,
		"pitch_targets":  map[string]interface{}{"CLIMBER_CLIMB_MID_BAR": 12.5},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *cfg.ReachMax, test.ShouldEqual, 18.0)
	test.That(t, cfg.ReachMin, test.ShouldBeNil)
	test.That(t, *cfg.CheckRotation, test.ShouldBeFalse)
	test.That(t, cfg.PitchTargets["CLIMBER_CLIMB_MID_BAR"], test.ShouldEqual, 12.5)

	_, err = TransformAttributeMap[intake.Config](AttributeMap{"max_extend": 4, "colour": "red"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "colour")

	_, err = ConvertAttributes("elevator", nil)
	test.That(t, err, test.ShouldNotBeNil)

	am := AttributeMap{"x": 1}
	test.That(t, am.Has("x"), test.ShouldBeTrue)
	test.That(t, am.Has("y"), test.ShouldBeFalse)
}
