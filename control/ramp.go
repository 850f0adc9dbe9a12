package control

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Ramp limits how fast the output of another law may change. rampSeconds is the time to go from
// zero to full output.
type Ramp struct {
	law     Law
	maxStep float64
	last    float64
}

// NewRamp wraps law so its output changes by at most period/rampSeconds per call.
func NewRamp(law Law, rampSeconds float64, period time.Duration) (*Ramp, error) {
	if rampSeconds <= 0 {
		return nil, errors.Errorf("ramp time must be positive, got %v", rampSeconds)
	}
	if period <= 0 {
		return nil, errors.Errorf("ramp period must be positive, got %v", period)
	}
	return &Ramp{law: law, maxStep: period.Seconds() / rampSeconds}, nil
}

// Calculate returns the wrapped law's output, rate limited against the previous call.
func (r *Ramp) Calculate(current, target float64) float64 {
	want := r.law.Calculate(current, target)
	delta := want - r.last
	if math.Abs(delta) > r.maxStep {
		delta = math.Copysign(r.maxStep, delta)
	}
	r.last += delta
	return r.last
}

// Reset restarts the ramp from zero output.
func (r *Ramp) Reset() {
	r.last = 0
	r.law.Reset()
}
