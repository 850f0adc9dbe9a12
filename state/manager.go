package state

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"

	"github.com/team302/mechcore/input"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/telemetry"
)

// Telemetry keys published by a manager.
const (
	KeyState         = "state"
	KeyStateName     = "state name"
	KeyChangingState = "Changing State"
)

// Deps are a manager's collaborators. Every field is optional.
type Deps struct {
	Input  input.Source
	Sink   telemetry.Sink
	Clock  clock.Clock
	Logger logging.Logger
}

// Manager owns a mechanism's states and selects the active one each cycle.
type Manager struct {
	mu sync.Mutex

	mech   mechanism.Mechanism
	policy Policy
	table  *Table
	states map[ID]*State
	byName map[string]*State
	fsm    *fsm.FSM

	current  ID
	previous ID

	input  input.Reader
	tel    telemetry.Table
	clock  clock.Clock
	logger logging.Logger
}

func eventName(d Descriptor) string {
	return "to_" + d.Name
}

// NewManager builds the states of policy for mech from defs and activates the initial state.
// It fails with ErrMechanismMissing if mech is nil and with ErrUnknownStateKey if a definition
// names a key the policy does not know.
func NewManager(mech mechanism.Mechanism, policy Policy, defs []Definition, deps Deps) (*Manager, error) {
	if mech == nil {
		return nil, ErrMechanismMissing
	}
	if policy == nil {
		return nil, errors.Errorf("%s state manager needs a policy", mech.Type())
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewBlankLogger(string(mech.Type()))
	}

	table, err := NewTable(policy.Descriptors())
	if err != nil {
		return nil, errors.Wrapf(err, "%s states", mech.Type())
	}

	byKey := map[string]Definition{}
	for i, def := range defs {
		def := def
		if err := def.Validate(string(mech.Type()) + ".states." + def.Key); err != nil {
			return nil, err
		}
		if _, ok := table.ByKey(def.Key); !ok {
			return nil, NewUnknownStateKeyError(def.Key)
		}
		if _, ok := byKey[def.Key]; ok {
			return nil, errors.Errorf("state %q is defined more than once (definition %d)", def.Key, i)
		}
		byKey[def.Key] = def
	}

	m := &Manager{
		mech:   mech,
		policy: policy,
		table:  table,
		states: map[ID]*State{},
		byName: map[string]*State{},
		input:  input.Reader{Source: deps.Input},
		tel:    telemetry.NewTable(telemetry.NewMulti(deps.Logger, deps.Sink), string(mech.Type())),
		clock:  deps.Clock,
		logger: deps.Logger,
	}

	builder, _ := policy.(StateBuilder)
	descs := table.Descriptors()
	names := make([]string, 0, len(descs))
	for _, desc := range descs {
		def, ok := byKey[desc.Key]
		if !ok {
			def = Definition{Key: desc.Key}
		}
		var s *State
		if builder != nil {
			s = builder.BuildState(mech, desc, def)
		}
		if s == nil {
			s = New(desc, mech, def, nil, nil, m.logger)
		}
		m.states[desc.ID] = s
		m.byName[desc.Name] = s
		names = append(names, desc.Name)
	}

	events := make(fsm.Events, 0, len(descs))
	for _, desc := range descs {
		events = append(events, fsm.EventDesc{Name: eventName(desc), Src: names, Dst: desc.Name})
	}
	initial := table.Initial()
	m.fsm = fsm.NewFSM(
		initial.Name,
		events,
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.activate(e.Dst)
			},
		},
	)

	m.current = initial.ID
	m.previous = initial.ID
	m.states[initial.ID].Init()
	return m, nil
}

// activate runs inside the fsm's enter_state callback.
func (m *Manager) activate(name string) {
	s, ok := m.byName[name]
	if !ok {
		return
	}
	m.current = s.ID()
	s.Init()
}

// CheckForStateTransition polls input, asks the policy for the target state, publishes it, and
// activates it if it differs from the current state.
func (m *Manager) CheckForStateTransition(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := &Cycle{
		Inputs:   m.input,
		Current:  m.current,
		Previous: m.previous,
		State:    m.states[m.current],
		Now:      m.clock.Now(),
	}
	target := m.policy.ComputeTargetState(c)
	m.previous = c.Previous

	if _, ok := m.states[target]; !ok {
		m.logger.Errorw("policy chose an unknown state, staying", "error", NewUnknownStateError(target))
		target = m.current
	}

	m.tel.Publish(KeyState, int(target))
	if target == m.current {
		return
	}
	m.tel.Publish(KeyChangingState, int(target))
	m.previous = m.current
	m.transition(ctx, target)
}

func (m *Manager) transition(ctx context.Context, target ID) {
	from := m.states[m.current].Descriptor()
	to := m.states[target].Descriptor()
	if err := m.fsm.Event(ctx, eventName(to)); err != nil {
		// the machine is only a mirror of current; keep going without it
		m.logger.Warnw("state machine rejected transition", "from", from.Name, "to", to.Name, "error", err)
		m.fsm.SetState(to.Name)
		m.activate(to.Name)
	}
	m.tel.Publish(KeyStateName, to.Name)
	m.logger.Infow("state transition", "mechanism", m.mech.Type(), "from", from.Name, "to", to.Name)
}

// SetCurrentState forces a transition to id, bypassing the policy. Entering the current state
// again re-runs its Init.
func (m *Manager) SetCurrentState(ctx context.Context, id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok {
		return NewUnknownStateError(id)
	}
	if id == m.current {
		s.Init()
		return nil
	}
	m.previous = m.current
	m.transition(ctx, id)
	return nil
}

// Run runs the active state's per-cycle hook.
func (m *Manager) Run() {
	m.mu.Lock()
	s := m.states[m.current]
	m.mu.Unlock()
	s.Run()
}

// CurrentState returns the active state's id.
func (m *Manager) CurrentState() ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// PreviousState returns the id recorded as previous.
func (m *Manager) PreviousState() ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.previous
}

// Current returns the active state.
func (m *Manager) Current() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[m.current]
}

// State returns the state with id, or nil.
func (m *Manager) State(id ID) *State {
	return m.states[id]
}

// FSMState returns the name the transition machine holds, which always names the current state.
func (m *Manager) FSMState() string {
	return m.fsm.Current()
}

// Table returns the manager's descriptor table.
func (m *Manager) Table() *Table {
	return m.table
}

// Mechanism returns the mechanism the manager drives.
func (m *Manager) Mechanism() mechanism.Mechanism {
	return m.mech
}
