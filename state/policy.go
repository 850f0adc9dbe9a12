package state

import (
	"time"

	"github.com/team302/mechcore/input"
	"github.com/team302/mechcore/mechanism"
)

// Cycle is what a policy sees when picking the next state. A policy may overwrite Previous,
// e.g. to forget history when the mechanism is disabled; the manager keeps what it leaves there.
type Cycle struct {
	Inputs   input.Reader
	Current  ID
	Previous ID
	// State is the active state.
	State *State
	Now   time.Time
}

// A Policy is the mechanism-specific part of a state manager.
type Policy interface {
	// Descriptors lists every state of the mechanism.
	Descriptors() []Descriptor

	// ComputeTargetState returns the state the mechanism should be in this cycle.
	ComputeTargetState(c *Cycle) ID
}

// A StateBuilder builds a policy's states with its own at-target and run strategies.
type StateBuilder interface {
	BuildState(mech mechanism.Mechanism, desc Descriptor, def Definition) *State
}
