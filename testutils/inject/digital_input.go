package inject

import (
	"github.com/team302/mechcore/components/digitalinput"
)

// DigitalInput is an injected digitalinput.DigitalInput.
type DigitalInput struct {
	digitalinput.DigitalInput
	GetFunc func() bool
}

// Get calls the injected function or the real version.
func (d *DigitalInput) Get() bool {
	if d.GetFunc == nil {
		return d.DigitalInput.Get()
	}
	return d.GetFunc()
}
