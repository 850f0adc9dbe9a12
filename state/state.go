package state

import (
	"github.com/pkg/errors"

	"github.com/team302/mechcore/control"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
)

// Definition is the configured data of one state: targets and control parameters per axis.
type Definition struct {
	Key              string              `json:"key" mapstructure:"key"`
	PrimaryTarget    float64             `json:"primary_target" mapstructure:"primary_target"`
	SecondaryTarget  float64             `json:"secondary_target" mapstructure:"secondary_target"`
	PrimaryControl   *control.Parameters `json:"primary_control,omitempty" mapstructure:"primary_control"`
	SecondaryControl *control.Parameters `json:"secondary_control,omitempty" mapstructure:"secondary_control"`
}

// Validate ensures all parts of the definition are valid.
func (def *Definition) Validate(path string) error {
	if def.Key == "" {
		return errors.Errorf("%s: state needs a key", path)
	}
	if def.PrimaryControl != nil {
		if err := def.PrimaryControl.Validate(path + ".primary_control"); err != nil {
			return err
		}
	}
	if def.SecondaryControl != nil {
		if err := def.SecondaryControl.Validate(path + ".secondary_control"); err != nil {
			return err
		}
	}
	return nil
}

// AtTargetFunc is a mechanism's at-target strategy. It must not change any state.
type AtTargetFunc func(s *State) bool

// RunFunc is a per-cycle telemetry hook.
type RunFunc func(s *State)

// State binds a descriptor and its configured targets to a mechanism.
type State struct {
	desc     Descriptor
	mech     mechanism.Mechanism
	def      Definition
	atTarget AtTargetFunc
	run      RunFunc
	logger   logging.Logger

	initialized bool
}

// New returns a state. atTarget and run may be nil: such a state never reports at-target and
// publishes nothing.
func New(
	desc Descriptor,
	mech mechanism.Mechanism,
	def Definition,
	atTarget AtTargetFunc,
	run RunFunc,
	logger logging.Logger,
) *State {
	return &State{desc: desc, mech: mech, def: def, atTarget: atTarget, run: run, logger: logger}
}

// Descriptor returns the state's identity.
func (s *State) Descriptor() Descriptor {
	return s.desc
}

// ID returns the state's id.
func (s *State) ID() ID {
	return s.desc.ID
}

// Mechanism returns the mechanism the state drives.
func (s *State) Mechanism() mechanism.Mechanism {
	return s.mech
}

// Definition returns the configured targets and control parameters.
func (s *State) Definition() Definition {
	return s.def
}

// Targets returns the configured primary and secondary targets.
func (s *State) Targets() (float64, float64) {
	return s.def.PrimaryTarget, s.def.SecondaryTarget
}

// Init pushes the control parameters and targets into the mechanism. Calling it again
// re-applies the same values.
func (s *State) Init() {
	if s.mech == nil {
		return
	}
	if err := s.mech.SetControlParameters(s.def.PrimaryControl, s.def.SecondaryControl); err != nil {
		s.logger.Errorw("cannot apply control parameters", "state", s.desc.Name, "error", err)
	}
	s.mech.UpdateTargets(s.def.PrimaryTarget, s.def.SecondaryTarget)
	s.initialized = true
}

// Initialized reports whether Init has run.
func (s *State) Initialized() bool {
	return s.initialized
}

// Run publishes the state's diagnostics.
func (s *State) Run() {
	if s.run != nil {
		s.run(s)
	}
}

// AtTarget reports whether the mechanism has reached this state's targets. It is false before
// Init.
func (s *State) AtTarget() bool {
	if !s.initialized || s.atTarget == nil || s.mech == nil {
		return false
	}
	return s.atTarget(s)
}
