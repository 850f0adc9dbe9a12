// Package fake implements a simulated motor controller.
package fake

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/team302/mechcore/components/actuator"
	"github.com/team302/mechcore/logging"
)

// Models the simulated controller is registered under. The CAN controller models resolve to the
// simulation so robot descriptions run unchanged on a desk.
var Models = []string{"fake", "talonsrx", "falcon"}

const defaultMaxUnitsPerSecond = 10.0

func init() {
	for _, model := range Models {
		actuator.Register(model, func(cfg actuator.Config, clk clock.Clock, logger logging.Logger) (actuator.Actuator, error) {
			return NewActuator(cfg, clk, logger), nil
		})
	}
}

var _ actuator.Actuator = &Actuator{}

// Actuator keeps a simulated sensor position and records the commands it receives.
type Actuator struct {
	mu     sync.Mutex
	name   string
	logger logging.Logger

	counts        float64
	countsPerUnit float64
	inverted      bool

	output  float64
	stopped bool

	hasForwardSwitch bool
	hasReverseSwitch bool
	forwardLimit     bool
	reverseLimit     bool
	hardStopMin      *float64
	hardStopMax      *float64

	maxUnitsPerSecond float64
	stall             *actuator.StallDetector
	forceStall        bool

	sensorWrites int
}

// NewActuator returns a simulated actuator described by cfg.
func NewActuator(cfg actuator.Config, clk clock.Clock, logger logging.Logger) *Actuator {
	maxSpeed := cfg.MaxUnitsPerSecond
	if maxSpeed == 0 {
		maxSpeed = defaultMaxUnitsPerSecond
	}
	return &Actuator{
		name:              cfg.Name,
		logger:            logger,
		counts:            cfg.StartPosition * cfg.CountsPerUnit,
		countsPerUnit:     cfg.CountsPerUnit,
		inverted:          cfg.Inverted,
		stopped:           true,
		hasForwardSwitch:  cfg.ForwardLimitSwitch,
		hasReverseSwitch:  cfg.ReverseLimitSwitch,
		hardStopMin:       cfg.HardStopMin,
		hardStopMax:       cfg.HardStopMax,
		maxUnitsPerSecond: maxSpeed,
		stall:             actuator.NewStallDetector(cfg.Stall, clk),
	}
}

// New returns a simulated actuator with both limit switches wired, for tests.
func New(name string, countsPerUnit float64) *Actuator {
	return NewActuator(actuator.Config{
		Name:               name,
		Model:              "fake",
		CountsPerUnit:      countsPerUnit,
		ForwardLimitSwitch: true,
		ReverseLimitSwitch: true,
	}, clock.New(), logging.NewBlankLogger(name))
}

// Name returns the configured name.
func (a *Actuator) Name() string {
	return a.name
}

// Counts returns the simulated raw position.
func (a *Actuator) Counts() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts
}

// CountsPerUnit returns the configured conversion.
func (a *Actuator) CountsPerUnit() float64 {
	return a.countsPerUnit
}

// IsForwardLimitClosed reports the forward switch, closed when forced or when the simulated
// position sits on the upper hard stop.
func (a *Actuator) IsForwardLimitClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasForwardSwitch {
		return false
	}
	return a.forwardLimit || (a.hardStopMax != nil && a.units() >= *a.hardStopMax)
}

// IsReverseLimitClosed reports the reverse switch, closed when forced or when the simulated
// position sits on the lower hard stop.
func (a *Actuator) IsReverseLimitClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasReverseSwitch {
		return false
	}
	return a.reverseLimit || (a.hardStopMin != nil && a.units() <= *a.hardStopMin)
}

// SetSensorPosition overwrites the raw position and restarts stall sampling.
func (a *Actuator) SetSensorPosition(counts float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts = counts
	a.sensorWrites++
	a.stall.Reset()
}

// Set commands an output, clamped to [-1, 1].
func (a *Actuator) Set(output float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.output = math.Max(-1, math.Min(1, output))
	a.stopped = false
}

// StopMotor zeroes the output.
func (a *Actuator) StopMotor() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.output = 0
	a.stopped = true
}

// IsStalled reports a forced stall or one seen by the stall detector during Step.
func (a *Actuator) IsStalled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.forceStall || a.stall.Stalled()
}

// Step advances the simulated position by the commanded output over dt. Hard stops hold the
// position, which is what lets the stall detector trip.
func (a *Actuator) Step(dt time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// an inverted controller flips the motor and the sensor together, so the reported position
	// still follows the sign of the output
	units := a.units() + a.output*a.maxUnitsPerSecond*dt.Seconds()
	if a.hardStopMin != nil {
		units = math.Max(units, *a.hardStopMin)
	}
	if a.hardStopMax != nil {
		units = math.Min(units, *a.hardStopMax)
	}
	a.counts = units * a.countsPerUnit
	a.stall.Observe(a.output, a.counts)
}

func (a *Actuator) units() float64 {
	if a.countsPerUnit == 0 {
		return 0
	}
	return a.counts / a.countsPerUnit
}

// ShaftCounts returns the position in the motor's own frame, which runs opposite to Counts when
// the actuator is inverted.
func (a *Actuator) ShaftCounts() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inverted {
		return -a.counts
	}
	return a.counts
}

// SetCounts moves the simulated sensor without counting as a sensor write.
func (a *Actuator) SetCounts(counts float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts = counts
}

// SetForwardLimit forces the forward switch state.
func (a *Actuator) SetForwardLimit(closed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.forwardLimit = closed
}

// SetReverseLimit forces the reverse switch state.
func (a *Actuator) SetReverseLimit(closed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reverseLimit = closed
}

// SetStalled forces the stall flag.
func (a *Actuator) SetStalled(stalled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.forceStall = stalled
}

// Output returns the last commanded output; zero after StopMotor.
func (a *Actuator) Output() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.output
}

// Stopped reports whether StopMotor was called after the last Set.
func (a *Actuator) Stopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

// SensorWrites returns how many times SetSensorPosition was called.
func (a *Actuator) SensorWrites() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sensorWrites
}
