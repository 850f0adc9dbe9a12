package mechanism

import (
	"math"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/team302/mechcore/components/actuator"
	"github.com/team302/mechcore/components/digitalinput"
	"github.com/team302/mechcore/control"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/telemetry"
)

const maxZeroEvents = 32

type axis struct {
	id       AxisID
	cfg      AxisConfig
	actuator actuator.Actuator

	params *control.Parameters
	law    control.Law
	target float64
	output float64

	missingLogged bool
	zeroing       ZeroCause
}

type zeroKey struct {
	axis  AxisID
	cause ZeroCause
}

var _ Mechanism = &TwoAxis{}

// TwoAxis is a mechanism with two independently targeted actuators. Either actuator may be
// absent, in which case its axis reads as zero and is never at a bound.
type TwoAxis struct {
	mu sync.Mutex

	mechType Type
	cfg      Config
	clock    clock.Clock
	logger   logging.Logger
	table    telemetry.Table
	axes     [2]*axis

	zeroEvents []ZeroEvent
	zeroCounts map[zeroKey]int
}

// NewTwoAxis returns a mechanism driving primary and secondary. The starting sensor positions
// from cfg are written immediately.
func NewTwoAxis(
	cfg Config,
	primary, secondary actuator.Actuator,
	sink telemetry.Sink,
	clk clock.Clock,
	logger logging.Logger,
) (*TwoAxis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	m := &TwoAxis{
		mechType:   cfg.Type,
		cfg:        cfg,
		clock:      clk,
		logger:     logger,
		table:      telemetry.NewTable(telemetry.NewMulti(logger, sink), string(cfg.Type)),
		zeroCounts: map[zeroKey]int{},
	}
	for i, a := range []actuator.Actuator{primary, secondary} {
		id := AxisID(i)
		axisCfg := cfg.Primary
		if id == Secondary {
			axisCfg = cfg.Secondary
		}
		m.axes[i] = &axis{id: id, cfg: axisCfg, actuator: a, law: control.Passthrough{}}
		if a != nil && axisCfg.StartPosition != nil {
			a.SetSensorPosition(actuator.UnitsToCounts(a, *axisCfg.StartPosition))
		}
	}
	return m, nil
}

// Type implements Mechanism.
func (m *TwoAxis) Type() Type {
	return m.mechType
}

// Telemetry returns the mechanism's telemetry table.
func (m *TwoAxis) Telemetry() telemetry.Table {
	return m.table
}

// Logger returns the mechanism's logger.
func (m *TwoAxis) Logger() logging.Logger {
	return m.logger
}

// AxisConfig returns the safety policy of an axis.
func (m *TwoAxis) AxisConfig(id AxisID) AxisConfig {
	return m.axes[id].cfg
}

// Actuator returns the actuator behind an axis, which may be nil.
func (m *TwoAxis) Actuator(id AxisID) actuator.Actuator {
	return m.axes[id].actuator
}

// UpdateTargets implements Mechanism.
func (m *TwoAxis) UpdateTargets(primary, secondary float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.axes[Primary].target = primary
	m.axes[Secondary].target = secondary
}

// Target returns the stored target of an axis.
func (m *TwoAxis) Target(id AxisID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.axes[id].target
}

// SetControlParameters implements Mechanism. The previous laws are kept when either set of
// parameters is invalid.
func (m *TwoAxis) SetControlParameters(primary, secondary *control.Parameters) error {
	primaryLaw, err := control.NewLaw(primary, m.cfg.Period)
	if err != nil {
		return errors.Wrapf(err, "%s %s axis", m.mechType, Primary)
	}
	secondaryLaw, err := control.NewLaw(secondary, m.cfg.Period)
	if err != nil {
		return errors.Wrapf(err, "%s %s axis", m.mechType, Secondary)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.axes[Primary].params, m.axes[Primary].law = primary, primaryLaw
	m.axes[Secondary].params, m.axes[Secondary].law = secondary, secondaryLaw
	return nil
}

// Output returns the last command issued to an axis; zero when it was stopped.
func (m *TwoAxis) Output(id AxisID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.axes[id].output
}

// Position returns the axis position in physical units.
func (m *TwoAxis) Position(id AxisID) float64 {
	return actuator.Position(m.axes[id].actuator)
}

// IsAtMin reports whether an axis is at or below its minimum by position or by its min signal.
// It never changes sensor state.
func (m *TwoAxis) IsAtMin(id AxisID) bool {
	a := m.axes[id]
	return a.isAtMin(actuator.Position(a.actuator))
}

// IsAtMax reports whether an axis is at or above its maximum by position or by its forward limit.
func (m *TwoAxis) IsAtMax(id AxisID) bool {
	a := m.axes[id]
	return a.isAtMax(actuator.Position(a.actuator))
}

// AxisReached reports whether an axis has reached target. A target at or past a bound is
// reached when the axis senses that bound; otherwise the position must be within the axis
// tolerance.
func (m *TwoAxis) AxisReached(id AxisID, target float64) bool {
	a := m.axes[id]
	position := actuator.Position(a.actuator)
	switch {
	case a.cfg.Bounded && target >= a.cfg.Max:
		return a.isAtMax(position)
	case a.cfg.Bounded && target <= a.cfg.Min:
		return a.isAtMin(position)
	default:
		return math.Abs(position-target) < a.cfg.Tolerance
	}
}

// name is the axis's telemetry prefix: its configured name, or "primary"/"secondary".
func (a *axis) name() string {
	if a.cfg.Name == "" {
		return a.id.String()
	}
	return a.cfg.Name
}

func (a *axis) minSignal() bool {
	if a.actuator == nil {
		return false
	}
	if a.cfg.MinSwitch != nil {
		return digitalinput.Get(a.cfg.MinSwitch)
	}
	return a.cfg.UseReverseLimit && a.actuator.IsReverseLimitClosed()
}

func (a *axis) maxSignal() bool {
	if a.actuator == nil {
		return false
	}
	return a.cfg.UseForwardLimit && a.actuator.IsForwardLimitClosed()
}

func (a *axis) isAtMin(position float64) bool {
	if a.actuator == nil {
		return false
	}
	return (a.cfg.Bounded && position <= a.cfg.Min) || a.minSignal()
}

func (a *axis) isAtMax(position float64) bool {
	if a.actuator == nil {
		return false
	}
	return (a.cfg.Bounded && position >= a.cfg.Max) || a.maxSignal()
}

// Update implements Mechanism. For each axis it re-zeros the sensor if the min signal is
// asserted (or the actuator stalled driving toward min), stops the actuator if it is at a bound
// and either the target or the law's output points past it, and otherwise issues the output. Positions and
// targets are published every call.
func (m *TwoAxis) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.axes {
		m.updateAxis(a)
	}
}

func (m *TwoAxis) updateAxis(a *axis) {
	if a.actuator == nil {
		if !a.missingLogged {
			m.logger.Warnw("axis has no actuator, holding neutral", "axis", a.id.String(), "name", a.cfg.Name)
			a.missingLogged = true
		}
		a.output = 0
		m.publishAxis(a, 0)
		return
	}

	m.checkZero(a)

	position := actuator.Position(a.actuator)
	atMin := a.isAtMin(position)
	atMax := a.isAtMax(position)
	if (atMin && isTowardMin(a.params, a.target, position)) || (atMax && isTowardMax(a.params, a.target, position)) {
		m.stopAxis(a)
		m.publishAxis(a, position)
		return
	}
	output := a.law.Calculate(position, a.target)
	// the law's sign can disagree with the target's direction, e.g. bang-bang on a negative target
	if (atMin && output < 0) || (atMax && output > 0) {
		m.stopAxis(a)
	} else {
		a.output = output
		a.actuator.Set(output)
	}
	m.publishAxis(a, position)
}

func (m *TwoAxis) stopAxis(a *axis) {
	a.actuator.StopMotor()
	a.law.Reset()
	a.output = 0
}

func (m *TwoAxis) checkZero(a *axis) {
	var cause ZeroCause
	switch {
	case a.cfg.ZeroOnMinSwitch && a.minSignal():
		cause = ZeroCauseLimitSwitch
	case a.cfg.ZeroOnStall && a.actuator.IsStalled() &&
		isTowardMin(a.params, a.target, actuator.Position(a.actuator)):
		cause = ZeroCauseStall
	}
	if cause == "" {
		a.zeroing = ""
		return
	}

	before := actuator.Position(a.actuator)
	a.actuator.SetSensorPosition(actuator.UnitsToCounts(a.actuator, a.cfg.ZeroBaseline))
	m.zeroCounts[zeroKey{a.id, cause}]++
	if a.zeroing != cause {
		event := ZeroEvent{Axis: a.id, Cause: cause, Before: before, Baseline: a.cfg.ZeroBaseline, Time: m.clock.Now()}
		if len(m.zeroEvents) == maxZeroEvents {
			m.zeroEvents = m.zeroEvents[1:]
		}
		m.zeroEvents = append(m.zeroEvents, event)
		m.logger.Debugw("re-zeroed axis", "axis", a.name(), "cause", cause, "before", before, "baseline", a.cfg.ZeroBaseline)
		m.table.Publish(a.name()+" - Zeroed", true)
	}
	a.zeroing = cause
}

func (m *TwoAxis) publishAxis(a *axis, position float64) {
	prefix := a.name()
	m.table.Publish(prefix+" - Current", position)
	m.table.Publish(prefix+" - Target", a.target)
	m.table.Publish(prefix+" - Output", a.output)
}

// ZeroEvents returns the most recent re-zero events, oldest first. A re-zero held across
// consecutive cycles is one event.
func (m *TwoAxis) ZeroEvents() []ZeroEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ZeroEvent(nil), m.zeroEvents...)
}

// ZeroCount returns how many times an axis's sensor was overwritten for cause, counting every
// cycle.
func (m *TwoAxis) ZeroCount(id AxisID, cause ZeroCause) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zeroCounts[zeroKey{id, cause}]
}
