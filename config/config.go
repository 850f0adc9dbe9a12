// Package config defines the robot description: actuators, digital inputs and the mechanisms
// built from them, with their state definitions.
package config

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/team302/mechcore/components/actuator"
	"github.com/team302/mechcore/components/digitalinput"
	"github.com/team302/mechcore/input"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/state"
)

// DefaultPeriod is the control period used when none is configured.
const DefaultPeriod = 20 * time.Millisecond

// Config is a complete robot description.
type Config struct {
	ConfigFilePath string `json:"-"`

	// PeriodMS is the control period in milliseconds.
	PeriodMS      float64               `json:"period_ms,omitempty"`
	Actuators     []actuator.Config     `json:"actuators,omitempty"`
	DigitalInputs []digitalinput.Config `json:"digital_inputs,omitempty"`
	Mechanisms    []Mechanism           `json:"mechanisms,omitempty"`

	// InputScript is replayed as operator input when running in simulation.
	InputScript []input.Frame `json:"input_script,omitempty"`
	// Gamepad replaces InputScript with control-level events fed through a gamepad mapping.
	Gamepad *Gamepad `json:"gamepad,omitempty"`
}

// Gamepad maps physical controls (by name, e.g. "ButtonSouth") to input functions, and lists the
// events to replay through that mapping.
type Gamepad struct {
	Mapping map[string]input.Function `json:"mapping"`
	Events  []input.TimedEvent        `json:"events,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (g *Gamepad) Validate(path string) error {
	if len(g.Mapping) == 0 {
		return errors.Errorf("%s: mapping must not be empty", path)
	}
	_, err := input.ParseMapping(g.Mapping)
	if err != nil {
		err = errors.Wrapf(err, "%s.mapping", path)
	}
	for i, e := range g.Events {
		if _, _, pErr := e.Parse(); pErr != nil {
			err = multierr.Append(err, errors.Wrapf(pErr, "%s.events.%d", path, i))
		}
	}
	return err
}

// InputSource returns the operator input the description replays on clk: the gamepad events
// when a gamepad is configured, otherwise the input script.
func (c *Config) InputSource(clk clock.Clock) (input.Source, error) {
	if c.Gamepad == nil {
		return input.NewScript(c.InputScript, clk), nil
	}
	mapping, err := input.ParseMapping(c.Gamepad.Mapping)
	if err != nil {
		return nil, err
	}
	return input.NewReplay(input.NewGamepad(mapping), c.Gamepad.Events, clk)
}

// Period returns the control period.
func (c *Config) Period() time.Duration {
	if c.PeriodMS == 0 {
		return DefaultPeriod
	}
	return time.Duration(c.PeriodMS * float64(time.Millisecond))
}

// Actuator returns the actuator config named name.
func (c *Config) Actuator(name string) (actuator.Config, bool) {
	return lo.Find(c.Actuators, func(a actuator.Config) bool { return a.Name == name })
}

// DigitalInput returns the digital input config named name.
func (c *Config) DigitalInput(name string) (digitalinput.Config, bool) {
	return lo.Find(c.DigitalInputs, func(d digitalinput.Config) bool { return d.Name == name })
}

// Mechanism returns the mechanism config of type t.
func (c *Config) Mechanism(t mechanism.Type) (*Mechanism, bool) {
	for i := range c.Mechanisms {
		if c.Mechanisms[i].Type == t {
			return &c.Mechanisms[i], true
		}
	}
	return nil, false
}

// Mechanism describes one mechanism: which hardware fills each of its roles, its
// type-specific attributes and its state definitions.
type Mechanism struct {
	Type mechanism.Type `json:"type"`
	// Actuators maps a role (e.g. "lift") to an actuator name.
	Actuators map[string]string `json:"actuators,omitempty"`
	// DigitalInputs maps a role (e.g. "arm_back") to a digital input name.
	DigitalInputs map[string]string  `json:"digital_inputs,omitempty"`
	Attributes    AttributeMap       `json:"attributes,omitempty"`
	States        []state.Definition `json:"states,omitempty"`

	// ConvertedAttributes holds the typed attributes after Validate.
	ConvertedAttributes interface{} `json:"-"`
}

// Validate ensures the mechanism is of a known type, fills only that type's roles, and has
// attributes and states that convert and validate.
func (m *Mechanism) Validate(path string) error {
	roles, ok := mechanismRoles[m.Type]
	if !ok {
		return NewUnknownMechanismTypeError(m.Type)
	}
	var err error
	for role := range m.Actuators {
		if !lo.Contains(roles.actuators, role) {
			err = multierr.Append(err, errors.Errorf("%s: %s has no actuator role %q", path, m.Type, role))
		}
	}
	for role := range m.DigitalInputs {
		if !lo.Contains(roles.digitalInputs, role) {
			err = multierr.Append(err, errors.Errorf("%s: %s has no digital input role %q", path, m.Type, role))
		}
	}

	converted, convErr := ConvertAttributes(m.Type, m.Attributes)
	if convErr != nil {
		err = multierr.Append(err, errors.Wrapf(convErr, "%s.attributes", path))
	} else {
		m.ConvertedAttributes = converted
	}

	for i := range m.States {
		err = multierr.Append(err, m.States[i].Validate(fmt.Sprintf("%s.states.%d", path, i)))
	}
	return err
}

type roles struct {
	actuators     []string
	digitalInputs []string
}

// Mechanism roles.
const (
	RoleLift    = "lift"
	RoleRotate  = "rotate"
	RoleArmBack = "arm_back"
	RoleSpin    = "spin"
	RoleExtend  = "extend"
)

var mechanismRoles = map[mechanism.Type]roles{
	mechanism.TypeClimber:     {actuators: []string{RoleLift, RoleRotate}, digitalInputs: []string{RoleArmBack}},
	mechanism.TypeIntakeLeft:  {actuators: []string{RoleSpin, RoleExtend}},
	mechanism.TypeIntakeRight: {actuators: []string{RoleSpin, RoleExtend}},
}

// Validate checks the whole description and reports every problem found, not just the first.
func (c *Config) Validate() error {
	var err error
	if c.PeriodMS < 0 {
		err = multierr.Append(err, errors.Errorf("period_ms must not be negative, got %v", c.PeriodMS))
	}

	names := map[string]bool{}
	canIDs := map[int]string{}
	for i := range c.Actuators {
		a := &c.Actuators[i]
		path := fmt.Sprintf("actuators.%d", i)
		if vErr := a.Validate(path); vErr != nil {
			err = multierr.Append(err, vErr)
			continue
		}
		if _, ok := actuator.Lookup(a.Model); !ok {
			err = multierr.Append(err, errors.Wrapf(actuator.NewUnknownModelError(a.Model), "%s", path))
		}
		if names[a.Name] {
			err = multierr.Append(err, errors.Errorf("%s: duplicate actuator name %q", path, a.Name))
		}
		names[a.Name] = true
		if other, ok := canIDs[a.CANID]; ok {
			err = multierr.Append(err, errors.Wrapf(actuator.NewDuplicateCANIDError(a.CANID, other), "%s", path))
		} else {
			canIDs[a.CANID] = a.Name
		}
	}

	inputNames := map[string]bool{}
	for i := range c.DigitalInputs {
		d := &c.DigitalInputs[i]
		path := fmt.Sprintf("digital_inputs.%d", i)
		if vErr := d.Validate(path); vErr != nil {
			err = multierr.Append(err, vErr)
			continue
		}
		if inputNames[d.Name] {
			err = multierr.Append(err, errors.Errorf("%s: duplicate digital input name %q", path, d.Name))
		}
		inputNames[d.Name] = true
	}

	types := map[mechanism.Type]bool{}
	for i := range c.Mechanisms {
		m := &c.Mechanisms[i]
		path := fmt.Sprintf("mechanisms.%d", i)
		if types[m.Type] {
			err = multierr.Append(err, errors.Errorf("%s: only one %s mechanism is allowed", path, m.Type))
		}
		types[m.Type] = true
		err = multierr.Append(err, m.Validate(path))
		for role, name := range m.Actuators {
			if !names[name] {
				err = multierr.Append(err, errors.Errorf("%s: %s actuator %q is not defined", path, role, name))
			}
		}
		for role, name := range m.DigitalInputs {
			if !inputNames[name] {
				err = multierr.Append(err, errors.Errorf("%s: %s digital input %q is not defined", path, role, name))
			}
		}
	}

	for i, frame := range c.InputScript {
		if frame.AtSec < 0 {
			err = multierr.Append(err, errors.Errorf("input_script.%d: at_sec must not be negative", i))
		}
	}
	if c.Gamepad != nil {
		err = multierr.Append(err, c.Gamepad.Validate("gamepad"))
		if len(c.InputScript) > 0 {
			err = multierr.Append(err, errors.New("input_script and gamepad cannot both be set"))
		}
	}
	return err
}

// NewUnknownMechanismTypeError is returned for a mechanism type this module cannot build.
func NewUnknownMechanismTypeError(t mechanism.Type) error {
	return errors.Errorf("unknown mechanism type %q", t)
}
