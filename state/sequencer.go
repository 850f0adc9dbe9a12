package state

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Sequencer steps through a fixed list of states. It moves to the next state only after the
// current one has been at target for the settle duration, and stays on the last one.
type Sequencer struct {
	order  []ID
	settle time.Duration
	clock  clock.Clock

	active   bool
	index    int
	settling bool
	since    time.Time
}

// NewSequencer returns an inactive sequencer over order.
func NewSequencer(order []ID, settle time.Duration, clk clock.Clock) (*Sequencer, error) {
	if len(order) == 0 {
		return nil, errors.New("sequence needs at least one state")
	}
	if settle < 0 {
		return nil, errors.Errorf("negative settle time %v", settle)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Sequencer{order: append([]ID(nil), order...), settle: settle, clock: clk}, nil
}

// Active reports whether a sequence is in progress.
func (s *Sequencer) Active() bool {
	return s.active
}

// End returns the state the sequence finishes on.
func (s *Sequencer) End() ID {
	return s.order[len(s.order)-1]
}

// Reset abandons the sequence; the next call to Next starts from the first state.
func (s *Sequencer) Reset() {
	s.active = false
	s.index = 0
	s.settling = false
}

// Next returns the state the sequence wants now. current is the manager's current state and
// active its State, consulted for AtTarget.
func (s *Sequencer) Next(current ID, active *State) ID {
	if !s.active {
		s.active = true
		s.index = 0
		s.settling = false
		return s.order[0]
	}
	want := s.order[s.index]
	if current != want || active == nil || !active.AtTarget() {
		s.settling = false
		return want
	}
	if s.index == len(s.order)-1 {
		return want
	}
	if !s.settling {
		s.settling = true
		s.since = s.clock.Now()
	}
	if s.clock.Since(s.since) < s.settle {
		return want
	}
	s.settling = false
	s.index++
	return s.order[s.index]
}
