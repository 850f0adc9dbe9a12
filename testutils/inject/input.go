package inject

import (
	"github.com/team302/mechcore/input"
)

// InputSource is an injected input.Source.
type InputSource struct {
	input.Source
	IsButtonPressedFunc func(fn input.Function) bool
	AxisValueFunc       func(fn input.Function) float64
}

// IsButtonPressed calls the injected function or the real version.
func (s *InputSource) IsButtonPressed(fn input.Function) bool {
	if s.IsButtonPressedFunc == nil {
		return s.Source.IsButtonPressed(fn)
	}
	return s.IsButtonPressedFunc(fn)
}

// AxisValue calls the injected function or the real version.
func (s *InputSource) AxisValue(fn input.Function) float64 {
	if s.AxisValueFunc == nil {
		return s.Source.AxisValue(fn)
	}
	return s.AxisValueFunc(fn)
}
