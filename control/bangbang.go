package control

import "math"

// BangBang commands full output in the direction of the target until the fractional error falls
// inside the tolerance band.
type BangBang struct {
	tolerance float64
}

// NewBangBang returns a bang-bang law. The sign of tolerance is ignored.
func NewBangBang(tolerance float64) BangBang {
	return BangBang{tolerance: math.Abs(tolerance)}
}

// Calculate returns +1, -1 or 0. The error is (target-current)/target; with a zero target the
// fraction is undefined and the absolute error target-current is used instead.
func (b BangBang) Calculate(current, target float64) float64 {
	e := target - current
	if target != 0 {
		e /= target
	}
	switch {
	case e > b.tolerance:
		return 1
	case e < -b.tolerance:
		return -1
	}
	return 0
}

// Reset is a no-op; the law is stateless.
func (BangBang) Reset() {}
