package robot

import (
	"sort"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/team302/mechcore/components/actuator"
	"github.com/team302/mechcore/components/digitalinput"
	"github.com/team302/mechcore/config"
	"github.com/team302/mechcore/input"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/mechanism/climber"
	"github.com/team302/mechcore/mechanism/intake"
	"github.com/team302/mechcore/state"
	"github.com/team302/mechcore/telemetry"
)

// Deps are the collaborators shared by every mechanism of a robot.
type Deps struct {
	Input  input.Source
	Sink   telemetry.Sink
	Clock  clock.Clock
	Logger logging.Logger
	// Pitch feeds the climber's pitch check, if it is enabled.
	Pitch climber.PitchSource
}

// Robot is a built robot description.
type Robot struct {
	Registry *Registry
	Loop     *Loop

	factory       *actuator.Factory
	actuators     map[string]actuator.Actuator
	digitalInputs map[string]*digitalinput.Static
}

// Actuator returns the actuator named name, or nil.
func (r *Robot) Actuator(name string) actuator.Actuator {
	return r.actuators[name]
}

// ActuatorNames lists the robot's actuators in order.
func (r *Robot) ActuatorNames() []string {
	names := lo.Keys(r.actuators)
	sort.Strings(names)
	return names
}

// Controller returns the actuator with a CAN id, or nil.
func (r *Robot) Controller(canID int) actuator.Actuator {
	return r.factory.Controller(canID)
}

// DigitalInput returns the digital input named name, or nil.
func (r *Robot) DigitalInput(name string) *digitalinput.Static {
	return r.digitalInputs[name]
}

// Build creates the actuators, inputs and mechanisms of cfg and registers a state manager
// builder for each mechanism. Managers are built lazily by the loop.
func Build(cfg *config.Config, deps Deps) (*Robot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewBlankLogger("robot")
	}
	if deps.Sink == nil {
		deps.Sink = telemetry.Noop{}
	}

	r := &Robot{
		Registry:      NewRegistry(deps.Logger.Sublogger("registry")),
		factory:       actuator.NewFactory(deps.Clock, deps.Logger.Sublogger("actuators")),
		actuators:     map[string]actuator.Actuator{},
		digitalInputs: map[string]*digitalinput.Static{},
	}
	for _, ac := range cfg.Actuators {
		a, err := r.factory.Create(ac)
		if err != nil {
			return nil, err
		}
		r.actuators[ac.Name] = a
	}
	for _, dc := range cfg.DigitalInputs {
		r.digitalInputs[dc.Name] = digitalinput.NewStatic(dc)
	}

	stateDeps := state.Deps{Input: deps.Input, Sink: deps.Sink, Clock: deps.Clock, Logger: deps.Logger}
	for i := range cfg.Mechanisms {
		if err := r.addMechanism(&cfg.Mechanisms[i], cfg, deps, stateDeps); err != nil {
			return nil, errors.Wrapf(err, "building %s", cfg.Mechanisms[i].Type)
		}
	}

	loop, err := NewLoop(r.Registry, cfg.Period(), deps.Clock, deps.Logger.Sublogger("loop"))
	if err != nil {
		return nil, err
	}
	r.Loop = loop
	return r, nil
}

func (r *Robot) digitalInput(name string) digitalinput.DigitalInput {
	if in, ok := r.digitalInputs[name]; ok {
		return in
	}
	return nil
}

func (r *Robot) addMechanism(mc *config.Mechanism, cfg *config.Config, deps Deps, stateDeps state.Deps) error {
	attrs := mc.ConvertedAttributes
	if attrs == nil {
		converted, err := config.ConvertAttributes(mc.Type, mc.Attributes)
		if err != nil {
			return err
		}
		attrs = converted
	}
	logger := deps.Logger.Sublogger(string(mc.Type))
	stateDeps.Logger = logger

	var mech mechanism.Mechanism
	var builder ManagerBuilder
	switch mc.Type {
	case mechanism.TypeClimber:
		climberCfg, ok := attrs.(*climber.Config)
		if !ok {
			return errors.Errorf("expected *climber.Config but got %T", attrs)
		}
		c, err := climber.New(*climberCfg, cfg.Period(), climber.Deps{
			Lift:    r.actuators[mc.Actuators[config.RoleLift]],
			Rotate:  r.actuators[mc.Actuators[config.RoleRotate]],
			ArmBack: r.digitalInput(mc.DigitalInputs[config.RoleArmBack]),
			Pitch:   deps.Pitch,
			Sink:    deps.Sink,
			Clock:   deps.Clock,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		defs := mc.States
		if len(defs) == 0 {
			defs = climber.DefaultDefinitions()
		}
		mech = c
		builder = func(m mechanism.Mechanism) (*state.Manager, error) {
			c, _ := m.(*climber.Climber)
			mgr, _, err := climber.NewManager(c, defs, stateDeps)
			return mgr, err
		}
	case mechanism.TypeIntakeLeft, mechanism.TypeIntakeRight:
		intakeCfg, ok := attrs.(*intake.Config)
		if !ok {
			return errors.Errorf("expected *intake.Config but got %T", attrs)
		}
		side, err := intake.SideForType(mc.Type)
		if err != nil {
			return err
		}
		in, err := intake.New(side, *intakeCfg, cfg.Period(), intake.Deps{
			Spin:   r.actuators[mc.Actuators[config.RoleSpin]],
			Extend: r.actuators[mc.Actuators[config.RoleExtend]],
			Sink:   deps.Sink,
			Clock:  deps.Clock,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		defs := mc.States
		if len(defs) == 0 {
			defs = intake.DefaultDefinitions(*intakeCfg)
		}
		mech = in
		builder = func(m mechanism.Mechanism) (*state.Manager, error) {
			in, _ := m.(*intake.Intake)
			return intake.NewManager(in, defs, stateDeps)
		}
	default:
		return config.NewUnknownMechanismTypeError(mc.Type)
	}

	if err := r.Registry.Register(mc.Type, builder); err != nil {
		return err
	}
	return r.Registry.SetMechanism(mc.Type, mech)
}
