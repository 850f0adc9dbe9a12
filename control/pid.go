package control

import (
	"time"

	"github.com/pkg/errors"
)

// PID is a discrete proportional-integral-derivative position controller with a feed-forward
// term, a clamped integrator and a clamped output.
type PID struct {
	Kp float64
	Ki float64
	Kd float64
	F  float64

	peak     float64
	intLimit float64
	dt       float64

	integral  float64
	lastError float64
	primed    bool
}

// NewPID returns a PID stepping every period.
func NewPID(params Parameters, period time.Duration) (*PID, error) {
	if period <= 0 {
		return nil, errors.Errorf("pid period must be positive, got %v", period)
	}
	peak := params.Peak()
	intLimit := params.IntegralLimit
	if intLimit == 0 {
		intLimit = peak
	}
	return &PID{
		Kp:       params.Kp,
		Ki:       params.Ki,
		Kd:       params.Kd,
		F:        params.F,
		peak:     peak,
		intLimit: intLimit,
		dt:       period.Seconds(),
	}, nil
}

// Calculate advances the controller one period and returns the clamped command.
func (p *PID) Calculate(current, target float64) float64 {
	e := target - current
	p.integral = Clamp(p.integral+p.Ki*e*p.dt, -p.intLimit, p.intLimit)

	var deriv float64
	if p.primed {
		deriv = (e - p.lastError) / p.dt
	}
	p.lastError = e
	p.primed = true

	output := p.Kp*e + p.integral + p.Kd*deriv + p.F*target
	return Clamp(output, -p.peak, p.peak)
}

// Reset clears the integrator and derivative history.
func (p *PID) Reset() {
	p.integral = 0
	p.lastError = 0
	p.primed = false
}
