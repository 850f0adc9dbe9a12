package climber

import (
	"github.com/benbjohnson/clock"

	"github.com/team302/mechcore/control"
	"github.com/team302/mechcore/input"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/state"
)

// Climber states. The bar states are in climbing order.
const (
	Off state.ID = iota
	Uninitialized
	Manual
	ZeroBeforeClimb
	InitialReach
	ClimbMidBar
	PrepareExtendMidBar
	ExtendMidBar
	RotateMidBar
	ReachHighBar
	ClimbHighBar
	PrepareExtendHighBar
	ExtendHighBar
	ClimbTraversalBar
)

// Descriptors lists every climber state with its configuration key.
func Descriptors() []state.Descriptor {
	return []state.Descriptor{
		{ID: Off, Name: "OFF", Key: "CLIMBER_OFF", Category: state.CategoryOff},
		{ID: Uninitialized, Name: "UNINITIALIZED", Key: "CLIMBER_UNINITIALIZED", Category: state.CategoryOff, Initial: true},
		{ID: Manual, Name: "MANUAL", Key: "CLIMBER_MANUAL", Category: state.CategoryManual},
		{ID: ZeroBeforeClimb, Name: "ZERO_BEFORE_CLIMB", Key: "CLIMBER_ZERO_BEFORE_CLIMB", Category: state.CategoryReset},
		{ID: InitialReach, Name: "INITIAL_REACH", Key: "CLIMBER_INITIALREACH", Category: state.CategoryAutomatic},
		{ID: ClimbMidBar, Name: "CLIMB_MID_BAR", Key: "CLIMBER_CLIMB_MID_BAR", Category: state.CategoryAutomatic},
		{ID: PrepareExtendMidBar, Name: "PREPARE_EXTEND_MID_BAR", Key: "CLIMBER_PREPARE_EXTEND_MID_BAR", Category: state.CategoryAutomatic},
		{ID: ExtendMidBar, Name: "EXTEND_MID_BAR", Key: "CLIMBER_EXTEND_MID_BAR", Category: state.CategoryAutomatic},
		{ID: RotateMidBar, Name: "ROTATE_MID_BAR", Key: "CLIMBER_ROTATE_MID_BAR", Category: state.CategoryAutomatic},
		{ID: ReachHighBar, Name: "REACH_HIGH_BAR", Key: "CLIMBER_REACH_HIGH_BAR", Category: state.CategoryAutomatic},
		{ID: ClimbHighBar, Name: "CLIMB_HIGH_BAR", Key: "CLIMBER_CLIMB_HIGH_BAR", Category: state.CategoryAutomatic},
		{ID: PrepareExtendHighBar, Name: "PREPARE_EXTEND_HIGH_BAR", Key: "CLIMBER_PREPARE_EXTEND_HIGH_BAR", Category: state.CategoryAutomatic},
		{ID: ExtendHighBar, Name: "EXTEND_HIGH_BAR", Key: "CLIMBER_EXTEND_HIGH_BAR", Category: state.CategoryAutomatic},
		{ID: ClimbTraversalBar, Name: "CLIMB_TRAVERSAL_BAR", Key: "CLIMBER_CLIMB_TRAVERSAL_BAR", Category: state.CategoryAutomatic},
	}
}

// Sequence is the automatic climb, from the mid bar to the traversal bar.
func Sequence() []state.ID {
	return []state.ID{
		ClimbMidBar,
		PrepareExtendMidBar,
		ExtendMidBar,
		RotateMidBar,
		ReachHighBar,
		ClimbHighBar,
		PrepareExtendHighBar,
		ExtendHighBar,
		ClimbTraversalBar,
	}
}

// Telemetry keys published while a climber state runs.
const (
	KeyLiftHeight  = "Lift Height"
	KeyRotateAngle = "Rotate Angle"
)

var (
	_ state.Policy       = &Policy{}
	_ state.StateBuilder = &Policy{}
)

// Policy is the climber's transition ladder, evaluated top to bottom each cycle:
//   - climb mode off: OFF, and history and any auto sequence are forgotten
//   - auto climb held (when enabled): the next state of the sequence
//   - no history since startup: ZERO_BEFORE_CLIMB
//   - any manual axis past the deadband: MANUAL, which beats everything below
//   - initial reach or zero button, once zeroing has started: that state
type Policy struct {
	climber   *Climber
	sequencer *state.Sequencer
	logger    logging.Logger
}

// NewPolicy returns the policy for c. The auto sequence is only built when the config enables it.
func NewPolicy(c *Climber, clk clock.Clock, logger logging.Logger) (*Policy, error) {
	p := &Policy{climber: c, logger: logger}
	if c != nil && c.cfg.AutoSequence {
		seq, err := state.NewSequencer(Sequence(), c.cfg.settle(), clk)
		if err != nil {
			return nil, err
		}
		p.sequencer = seq
	}
	return p, nil
}

// Descriptors implements state.Policy.
func (p *Policy) Descriptors() []state.Descriptor {
	return Descriptors()
}

// AutoActive reports whether an auto climb is in progress.
func (p *Policy) AutoActive() bool {
	return p.sequencer != nil && p.sequencer.Active()
}

// CheckForManualInput reports whether any manual climber axis is past the deadband.
func (p *Policy) CheckForManualInput(in input.Reader) bool {
	deadband := DefaultDeadband
	if p.climber != nil {
		deadband = p.climber.cfg.deadband()
	}
	return in.AnyAxisExceeds(deadband, input.ClimberManualUp, input.ClimberManualDown, input.ClimberManualRotate)
}

// ComputeTargetState implements state.Policy.
func (p *Policy) ComputeTargetState(c *state.Cycle) state.ID {
	if !c.Inputs.IsButtonPressed(input.EnableClimber) {
		c.Previous = Off
		if p.sequencer != nil {
			p.sequencer.Reset()
		}
		return Off
	}

	target := c.Current
	if p.sequencer != nil && c.Inputs.IsButtonPressed(input.ClimbAuto) {
		target = p.sequencer.Next(c.Current, c.State)
		c.Previous = target
	}
	if c.Previous == Uninitialized {
		target = ZeroBeforeClimb
	}
	if p.CheckForManualInput(c.Inputs) {
		return Manual
	}
	if c.Previous != Uninitialized {
		switch {
		case c.Inputs.IsButtonPressed(input.ClimberInitialReach):
			target = InitialReach
		case c.Inputs.IsButtonPressed(input.ClimberZero):
			target = ZeroBeforeClimb
		}
	}
	return target
}

// BuildState implements state.StateBuilder.
func (p *Policy) BuildState(mech mechanism.Mechanism, desc state.Descriptor, def state.Definition) *state.State {
	return state.New(desc, mech, def, p.atTarget, p.run, p.logger)
}

// atTarget is true when the lift, and unless disabled the rotation and pitch, have reached the
// state's targets.
func (p *Policy) atTarget(s *state.State) bool {
	c := p.climber
	if c == nil {
		return false
	}
	lift, rotate := s.Targets()
	reached := c.AxisReached(mechanism.Primary, lift)
	if c.cfg.checkRotation() {
		reached = reached && c.AxisReached(mechanism.Secondary, rotate)
	}
	if c.cfg.CheckPitch {
		reached = reached && c.pitchReached(s.Descriptor().Key)
	}
	return reached
}

func (p *Policy) run(*state.State) {
	if p.climber == nil {
		return
	}
	tel := p.climber.Telemetry()
	tel.Publish(KeyLiftHeight, p.climber.LiftHeight())
	tel.Publish(KeyRotateAngle, p.climber.RotateAngle())
}

// NewManager builds the climber's state manager. A nil climber fails with
// state.ErrMechanismMissing.
func NewManager(c *Climber, defs []state.Definition, deps state.Deps) (*state.Manager, *Policy, error) {
	if c == nil {
		return nil, nil, state.ErrMechanismMissing
	}
	policy, err := NewPolicy(c, deps.Clock, c.Logger())
	if err != nil {
		return nil, nil, err
	}
	m, err := state.NewManager(c, policy, defs, deps)
	if err != nil {
		return nil, nil, err
	}
	return m, policy, nil
}

func pid(kp float64) *control.Parameters {
	return &control.Parameters{Mode: control.ModePositionPID, Kp: kp, Ki: 0.01, PeakOutput: 1}
}

func bangBang(tolerance float64) *control.Parameters {
	return &control.Parameters{Mode: control.ModePositionBangBang, Tolerance: tolerance}
}

// DefaultDefinitions returns the targets the robot climbs with. The lift uses a PID because
// several of its targets are negative, where the fractional bang-bang error changes sign.
func DefaultDefinitions() []state.Definition {
	def := func(key string, lift, rotate float64) state.Definition {
		return state.Definition{
			Key:              key,
			PrimaryTarget:    lift,
			SecondaryTarget:  rotate,
			PrimaryControl:   pid(0.5),
			SecondaryControl: bangBang(0.02),
		}
	}
	return []state.Definition{
		{Key: "CLIMBER_OFF", PrimaryControl: control.PercentOutput(), SecondaryControl: control.PercentOutput()},
		{Key: "CLIMBER_MANUAL", PrimaryControl: control.PercentOutput(), SecondaryControl: control.PercentOutput()},
		def("CLIMBER_ZERO_BEFORE_CLIMB", DefaultReachMin, DefaultRotateMin),
		def("CLIMBER_INITIALREACH", DefaultReachMax, DefaultRotateMin),
		def("CLIMBER_CLIMB_MID_BAR", DefaultReachMin, DefaultRotateMin),
		def("CLIMBER_PREPARE_EXTEND_MID_BAR", 4, 20),
		def("CLIMBER_EXTEND_MID_BAR", DefaultReachMax, 20),
		def("CLIMBER_ROTATE_MID_BAR", DefaultReachMax, 45),
		def("CLIMBER_REACH_HIGH_BAR", DefaultReachMax, 30),
		def("CLIMBER_CLIMB_HIGH_BAR", DefaultReachMin, DefaultRotateMin),
		def("CLIMBER_PREPARE_EXTEND_HIGH_BAR", 4, 20),
		def("CLIMBER_EXTEND_HIGH_BAR", DefaultReachMax, 20),
		def("CLIMBER_CLIMB_TRAVERSAL_BAR", DefaultReachMin, DefaultRotateMin),
	}
}
