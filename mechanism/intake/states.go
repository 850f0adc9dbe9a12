package intake

import (
	"github.com/team302/mechcore/control"
	"github.com/team302/mechcore/input"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/state"
)

// Intake states.
const (
	Off state.ID = iota
	Intaking
	Expelling
	Retracting
)

// KeyExtension is published while an intake state runs.
const KeyExtension = "Extension"

// Descriptors lists every intake state with its configuration key.
func Descriptors() []state.Descriptor {
	return []state.Descriptor{
		{ID: Off, Name: "OFF", Key: "INTAKE_OFF", Category: state.CategoryOff, Initial: true},
		{ID: Intaking, Name: "INTAKE", Key: "INTAKE_INTAKE", Category: state.CategoryManual},
		{ID: Expelling, Name: "EXPEL", Key: "INTAKE_EXPEL", Category: state.CategoryManual},
		{ID: Retracting, Name: "RETRACT", Key: "INTAKE_RETRACT", Category: state.CategoryManual},
	}
}

var (
	_ state.Policy       = &Policy{}
	_ state.StateBuilder = &Policy{}
)

// Policy picks an intake's state from its side's buttons: intake beats expel, expel beats a
// retract request, and with nothing held the intake turns off.
type Policy struct {
	intake *Intake
	side   Side
	logger logging.Logger
}

// NewPolicy returns the policy for i.
func NewPolicy(i *Intake, logger logging.Logger) *Policy {
	p := &Policy{intake: i, side: Left, logger: logger}
	if i != nil {
		p.side = i.side
	}
	return p
}

// Descriptors implements state.Policy.
func (p *Policy) Descriptors() []state.Descriptor {
	return Descriptors()
}

// IsIntakePressed reports whether the side's intake button is held.
func (p *Policy) IsIntakePressed(in input.Reader) bool {
	fn, _, _ := p.side.Functions()
	return in.IsButtonPressed(fn)
}

// IsExpelPressed reports whether the side's expel button is held.
func (p *Policy) IsExpelPressed(in input.Reader) bool {
	_, fn, _ := p.side.Functions()
	return in.IsButtonPressed(fn)
}

// IsRetractSelected reports whether the side's retract axis is past the threshold. Only a
// positive deflection counts.
func (p *Policy) IsRetractSelected(in input.Reader) bool {
	_, _, fn := p.side.Functions()
	threshold := DefaultRetractThreshold
	if p.intake != nil {
		threshold = p.intake.cfg.retractThreshold()
	}
	return in.AxisValue(fn) > threshold
}

// ComputeTargetState implements state.Policy.
func (p *Policy) ComputeTargetState(c *state.Cycle) state.ID {
	switch {
	case p.IsIntakePressed(c.Inputs):
		return Intaking
	case p.IsExpelPressed(c.Inputs):
		return Expelling
	case p.IsRetractSelected(c.Inputs):
		return Retracting
	default:
		return Off
	}
}

// BuildState implements state.StateBuilder.
func (p *Policy) BuildState(mech mechanism.Mechanism, desc state.Descriptor, def state.Definition) *state.State {
	return state.New(desc, mech, def, p.atTarget, p.run, p.logger)
}

// atTarget only looks at the extend axis; the rollers have no position to reach. An extend
// axis in percent output is always at target.
func (p *Policy) atTarget(s *state.State) bool {
	if p.intake == nil {
		return false
	}
	if s.Definition().SecondaryControl.IsPercentOutput() {
		return true
	}
	_, extend := s.Targets()
	return p.intake.AxisReached(mechanism.Secondary, extend)
}

func (p *Policy) run(*state.State) {
	if p.intake == nil {
		return
	}
	p.intake.Telemetry().Publish(KeyExtension, p.intake.Extension())
}

// NewManager builds the state manager of intake i. A nil intake fails with
// state.ErrMechanismMissing.
func NewManager(i *Intake, defs []state.Definition, deps state.Deps) (*state.Manager, error) {
	if i == nil {
		return nil, state.ErrMechanismMissing
	}
	return state.NewManager(i, NewPolicy(i, i.Logger()), defs, deps)
}

// DefaultDefinitions returns the intake's stock targets. The rollers run open loop; the extend
// axis is positioned out to max_extend and back to zero.
func DefaultDefinitions(cfg Config) []state.Definition {
	extend := &control.Parameters{Mode: control.ModePositionPID, Kp: 0.8, PeakOutput: 1}
	return []state.Definition{
		{Key: "INTAKE_OFF", PrimaryControl: control.PercentOutput(), SecondaryControl: control.PercentOutput()},
		{Key: "INTAKE_INTAKE", PrimaryTarget: 1, SecondaryTarget: cfg.maxExtend(),
			PrimaryControl: control.PercentOutput(), SecondaryControl: extend},
		{Key: "INTAKE_EXPEL", PrimaryTarget: -1, SecondaryTarget: cfg.maxExtend(),
			PrimaryControl: control.PercentOutput(), SecondaryControl: extend},
		{Key: "INTAKE_RETRACT", PrimaryControl: control.PercentOutput(), SecondaryControl: extend},
	}
}
