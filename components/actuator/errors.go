package actuator

import "github.com/pkg/errors"

// ErrUnknownModel is returned when no constructor is registered for a model.
var ErrUnknownModel = errors.New("unknown actuator model")

// NewUnknownModelError returns an error wrapping ErrUnknownModel for the named model.
func NewUnknownModelError(model string) error {
	return errors.Wrapf(ErrUnknownModel, "model %q", model)
}

// NewInvalidCANIDError returns an error for a controller id outside the bus range.
func NewInvalidCANIDError(canID int) error {
	return errors.Errorf("invalid CAN ID %d, must be within [0, %d]", canID, MaxCANID)
}

// NewDuplicateCANIDError returns an error when two controllers claim the same id.
func NewDuplicateCANIDError(canID int, existing string) error {
	return errors.Errorf("CAN ID %d is already used by actuator %q", canID, existing)
}
