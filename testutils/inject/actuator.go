// Package inject provides doubles whose behavior can be overridden one method at a time.
package inject

import (
	"github.com/team302/mechcore/components/actuator"
)

// Actuator is an injected actuator.Actuator. Methods without an override fall through to the
// embedded actuator, which may be nil only if every called method is overridden.
type Actuator struct {
	actuator.Actuator
	NameFunc                 func() string
	CountsFunc               func() float64
	CountsPerUnitFunc        func() float64
	IsForwardLimitClosedFunc func() bool
	IsReverseLimitClosedFunc func() bool
	SetSensorPositionFunc    func(counts float64)
	SetFunc                  func(output float64)
	StopMotorFunc            func()
	IsStalledFunc            func() bool
}

// NewActuator wraps a.
func NewActuator(a actuator.Actuator) *Actuator {
	return &Actuator{Actuator: a}
}

// Name calls the injected Name or the real version.
func (a *Actuator) Name() string {
	if a.NameFunc == nil {
		return a.Actuator.Name()
	}
	return a.NameFunc()
}

// Counts calls the injected Counts or the real version.
func (a *Actuator) Counts() float64 {
	if a.CountsFunc == nil {
		return a.Actuator.Counts()
	}
	return a.CountsFunc()
}

// CountsPerUnit calls the injected CountsPerUnit or the real version.
func (a *Actuator) CountsPerUnit() float64 {
	if a.CountsPerUnitFunc == nil {
		return a.Actuator.CountsPerUnit()
	}
	return a.CountsPerUnitFunc()
}

// IsForwardLimitClosed calls the injected IsForwardLimitClosed or the real version.
func (a *Actuator) IsForwardLimitClosed() bool {
	if a.IsForwardLimitClosedFunc == nil {
		return a.Actuator.IsForwardLimitClosed()
	}
	return a.IsForwardLimitClosedFunc()
}

// IsReverseLimitClosed calls the injected IsReverseLimitClosed or the real version.
func (a *Actuator) IsReverseLimitClosed() bool {
	if a.IsReverseLimitClosedFunc == nil {
		return a.Actuator.IsReverseLimitClosed()
	}
	return a.IsReverseLimitClosedFunc()
}

// SetSensorPosition calls the injected SetSensorPosition or the real version.
func (a *Actuator) SetSensorPosition(counts float64) {
	if a.SetSensorPositionFunc == nil {
		a.Actuator.SetSensorPosition(counts)
		return
	}
	a.SetSensorPositionFunc(counts)
}

// Set calls the injected Set or the real version.
func (a *Actuator) Set(output float64) {
	if a.SetFunc == nil {
		a.Actuator.Set(output)
		return
	}
	a.SetFunc(output)
}

// StopMotor calls the injected StopMotor or the real version.
func (a *Actuator) StopMotor() {
	if a.StopMotorFunc == nil {
		a.Actuator.StopMotor()
		return
	}
	a.StopMotorFunc()
}

// IsStalled calls the injected IsStalled or the real version.
func (a *Actuator) IsStalled() bool {
	if a.IsStalledFunc == nil {
		return a.Actuator.IsStalled()
	}
	return a.IsStalledFunc()
}
