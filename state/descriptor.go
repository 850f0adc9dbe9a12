// Package state implements the per-mechanism state machine: named states bound to a mechanism,
// and a Manager that picks the active state each control cycle from operator input.
package state

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ID identifies a state within one manager. Ids of automatic states are ordered as the
// mechanism's sequence.
type ID int

// Category groups related states.
type Category string

// State categories.
const (
	CategoryOff       Category = "off"
	CategoryReset     Category = "reset"
	CategoryManual    Category = "manual"
	CategoryAutomatic Category = "automatic"
)

// Descriptor is the immutable identity of a state.
type Descriptor struct {
	ID       ID
	Name     string
	Key      string
	Category Category
	Initial  bool
}

// Table maps configuration keys to descriptors.
type Table struct {
	byKey   map[string]Descriptor
	byID    map[ID]Descriptor
	initial Descriptor
}

// NewTable validates descriptors: ids, names and keys must be unique and non-empty, and exactly
// one descriptor must be the initial state.
func NewTable(descriptors []Descriptor) (*Table, error) {
	t := &Table{byKey: map[string]Descriptor{}, byID: map[ID]Descriptor{}}
	names := map[string]bool{}
	var initials []string
	for _, d := range descriptors {
		if d.Name == "" || d.Key == "" {
			return nil, errors.Errorf("state %d needs a name and a key", d.ID)
		}
		if _, ok := t.byID[d.ID]; ok {
			return nil, errors.Errorf("duplicate state id %d (%s)", d.ID, d.Name)
		}
		if _, ok := t.byKey[d.Key]; ok {
			return nil, errors.Errorf("duplicate state key %q", d.Key)
		}
		if names[d.Name] {
			return nil, errors.Errorf("duplicate state name %q", d.Name)
		}
		names[d.Name] = true
		t.byID[d.ID] = d
		t.byKey[d.Key] = d
		if d.Initial {
			initials = append(initials, d.Name)
			t.initial = d
		}
	}
	if len(initials) != 1 {
		return nil, errors.Errorf("need exactly one initial state, have %d %v", len(initials), initials)
	}
	return t, nil
}

// ByKey returns the descriptor for a configuration key.
func (t *Table) ByKey(key string) (Descriptor, bool) {
	d, ok := t.byKey[key]
	return d, ok
}

// ByID returns the descriptor for id.
func (t *Table) ByID(id ID) (Descriptor, bool) {
	d, ok := t.byID[id]
	return d, ok
}

// Initial returns the start state.
func (t *Table) Initial() Descriptor {
	return t.initial
}

// Descriptors returns every descriptor ordered by id.
func (t *Table) Descriptors() []Descriptor {
	descs := lo.Values(t.byID)
	sort.Slice(descs, func(i, j int) bool { return descs[i].ID < descs[j].ID })
	return descs
}

// Keys returns every configuration key, sorted.
func (t *Table) Keys() []string {
	keys := lo.Keys(t.byKey)
	sort.Strings(keys)
	return keys
}
