// Package robot composes mechanisms and their state managers and drives them from a fixed
// period control loop.
package robot

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/state"
)

// ManagerBuilder builds the state manager for a mechanism, which may be nil if the
// mechanism has not been created.
type ManagerBuilder func(mech mechanism.Mechanism) (*state.Manager, error)

type entry struct {
	mech      mechanism.Mechanism
	builder   ManagerBuilder
	manager   *state.Manager
	lastError error
}

// Registry holds at most one mechanism and one state manager per mechanism type. Managers are
// built on first use; a failed build is retried on the next request.
type Registry struct {
	mu      sync.Mutex
	logger  logging.Logger
	order   []mechanism.Type
	entries map[mechanism.Type]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{logger: logger, entries: map[mechanism.Type]*entry{}}
}

// Register declares mechanism type t and how to build its manager. Types are stepped in the
// order they are registered. Registering a type twice is an error.
func (r *Registry) Register(t mechanism.Type, builder ManagerBuilder) error {
	if builder == nil {
		return errors.Errorf("%s needs a manager builder", t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[t]; ok {
		return errors.Errorf("%s is already registered", t)
	}
	r.entries[t] = &entry{builder: builder}
	r.order = append(r.order, t)
	return nil
}

// SetMechanism records the mechanism of type t. A mechanism whose manager was already built
// cannot be replaced.
func (r *Registry) SetMechanism(t mechanism.Type, mech mechanism.Mechanism) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[t]
	if !ok {
		return errors.Errorf("%s is not registered", t)
	}
	if e.manager != nil {
		return errors.Errorf("%s already has a running state manager", t)
	}
	e.mech = mech
	return nil
}

// Mechanism returns the mechanism of type t, or nil.
func (r *Registry) Mechanism(t mechanism.Type) mechanism.Mechanism {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[t]; ok {
		return e.mech
	}
	return nil
}

// Manager returns the state manager of type t, building it if needed. Only a successful build
// is kept. Repeated failures with the same error are logged once.
func (r *Registry) Manager(t mechanism.Type) (*state.Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[t]
	if !ok {
		return nil, errors.Errorf("%s is not registered", t)
	}
	if e.manager != nil {
		return e.manager, nil
	}
	m, err := e.builder(e.mech)
	if err != nil {
		if e.lastError == nil || e.lastError.Error() != err.Error() {
			r.logger.Warnw("cannot build state manager yet", "mechanism", t, "error", err)
		}
		e.lastError = err
		return nil, err
	}
	if e.lastError != nil {
		r.logger.Infow("state manager built after earlier failure", "mechanism", t)
	}
	e.manager, e.lastError = m, nil
	return m, nil
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []mechanism.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mechanism.Type(nil), r.order...)
}

// Managers returns the managers built so far, keyed by type.
func (r *Registry) Managers() map[mechanism.Type]*state.Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	built := lo.PickBy(r.entries, func(_ mechanism.Type, e *entry) bool { return e.manager != nil })
	return lo.MapValues(built, func(e *entry, _ mechanism.Type) *state.Manager { return e.manager })
}
