package robot

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/team302/mechcore/control"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/mechanism/intake"
	"github.com/team302/mechcore/state"
)

type recordingMech struct {
	mechType mechanism.Type
	calls    *[]string
}

func (m *recordingMech) Type() mechanism.Type { return m.mechType }

func (m *recordingMech) UpdateTargets(float64, float64) {}

func (m *recordingMech) SetControlParameters(*control.Parameters, *control.Parameters) error {
	return nil
}

func (m *recordingMech) Update() {
	*m.calls = append(*m.calls, "update "+string(m.mechType))
}

type idlePolicy struct {
	calls *[]string
	name  string
}

func (p *idlePolicy) Descriptors() []state.Descriptor {
	return []state.Descriptor{{ID: 0, Name: "IDLE", Key: "IDLE", Category: state.CategoryOff, Initial: true}}
}

func (p *idlePolicy) ComputeTargetState(*state.Cycle) state.ID {
	*p.calls = append(*p.calls, "check "+p.name)
	return 0
}

func recordingBuilder(calls *[]string) ManagerBuilder {
	return func(m mechanism.Mechanism) (*state.Manager, error) {
		if m == nil {
			return nil, state.ErrMechanismMissing
		}
		return state.NewManager(m, &idlePolicy{calls: calls, name: string(m.Type())}, nil, state.Deps{})
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(logging.NewTestLogger(t))
	var calls []string
	test.That(t, r.Register(mechanism.TypeIntakeRight, recordingBuilder(&calls)), test.ShouldBeNil)
	test.That(t, r.Register(mechanism.TypeClimber, recordingBuilder(&calls)), test.ShouldBeNil)
	test.That(t, r.Register(mechanism.TypeClimber, recordingBuilder(&calls)), test.ShouldNotBeNil)
	test.That(t, r.Register(mechanism.TypeIntakeLeft, nil), test.ShouldNotBeNil)
	test.That(t, r.Types(), test.ShouldResemble, []mechanism.Type{mechanism.TypeIntakeRight, mechanism.TypeClimber})

	test.That(t, r.SetMechanism(mechanism.TypeIntakeLeft, nil), test.ShouldNotBeNil)
	_, err := r.Manager(mechanism.TypeIntakeLeft)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, r.Mechanism(mechanism.TypeIntakeLeft), test.ShouldBeNil)
}

func TestRegistryRetriesFailedBuilds(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	r := NewRegistry(logger)
	builds := 0
	test.That(t, r.Register(mechanism.TypeIntakeLeft, func(m mechanism.Mechanism) (*state.Manager, error) {
		builds++
		in, _ := m.(*intake.Intake)
		return intake.NewManager(in, nil, state.Deps{})
	}), test.ShouldBeNil)

	for i := 0; i < 3; i++ {
		_, err := r.Manager(mechanism.TypeIntakeLeft)
		test.That(t, errors.Is(err, state.ErrMechanismMissing), test.ShouldBeTrue)
	}
	test.That(t, builds, test.ShouldEqual, 3)
	test.That(t, logs.FilterMessage("cannot build state manager yet").Len(), test.ShouldEqual, 1)
	test.That(t, r.Managers(), test.ShouldBeEmpty)

	in, err := intake.New(intake.Left, intake.Config{}, 20*time.Millisecond, intake.Deps{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.SetMechanism(mechanism.TypeIntakeLeft, in), test.ShouldBeNil)

	first, err := r.Manager(mechanism.TypeIntakeLeft)
	test.That(t, err, test.ShouldBeNil)
	second, err := r.Manager(mechanism.TypeIntakeLeft)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second, test.ShouldEqual, first)
	test.That(t, builds, test.ShouldEqual, 4)
	test.That(t, first.Mechanism(), test.ShouldEqual, in)
	test.That(t, r.Managers(), test.ShouldHaveLength, 1)
	test.That(t, logs.FilterMessage("state manager built after earlier failure").Len(), test.ShouldEqual, 1)

	// a running manager keeps its mechanism
	test.That(t, r.SetMechanism(mechanism.TypeIntakeLeft, nil), test.ShouldNotBeNil)
}

func TestLoopStepOrder(t *testing.T) {
	var calls []string
	r := NewRegistry(logging.NewTestLogger(t))
	for _, mt := range []mechanism.Type{mechanism.TypeIntakeRight, mechanism.TypeClimber} {
		test.That(t, r.Register(mt, recordingBuilder(&calls)), test.ShouldBeNil)
		test.That(t, r.SetMechanism(mt, &recordingMech{mechType: mt, calls: &calls}), test.ShouldBeNil)
	}
	// registered but never created; skipped every step
	test.That(t, r.Register(mechanism.TypeIntakeLeft, recordingBuilder(&calls)), test.ShouldBeNil)

	loop, err := NewLoop(r, 20*time.Millisecond, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	loop.AddPreStepHook(func(context.Context, time.Duration) { calls = append(calls, "hook") })
	loop.Step(context.Background())

	test.That(t, calls, test.ShouldResemble, []string{
		"hook",
		"check intake_right",
		"update intake_right",
		"check climber",
		"update climber",
	})
	test.That(t, loop.Steps(), test.ShouldEqual, 1)
}
