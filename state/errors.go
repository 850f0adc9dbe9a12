package state

import "github.com/pkg/errors"

var (
	// ErrMechanismMissing is returned when a manager is built before its mechanism exists.
	ErrMechanismMissing = errors.New("mechanism does not exist")

	// ErrUnknownStateKey is returned when a definition names a key no descriptor has.
	ErrUnknownStateKey = errors.New("unknown state key")
)

// NewUnknownStateKeyError returns an error wrapping ErrUnknownStateKey for key.
func NewUnknownStateKeyError(key string) error {
	return errors.Wrapf(ErrUnknownStateKey, "%q", key)
}

// NewUnknownStateError returns an error for a state id the manager does not hold.
func NewUnknownStateError(id ID) error {
	return errors.Errorf("no state with id %d", id)
}
