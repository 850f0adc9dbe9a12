package actuator_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/team302/mechcore/components/actuator"
	"github.com/team302/mechcore/components/actuator/fake"
	"github.com/team302/mechcore/logging"
)

func TestPosition(t *testing.T) {
	test.That(t, actuator.Position(nil), test.ShouldEqual, 0.0)

	a := fake.New("lift", 2048)
	a.SetCounts(4096)
	test.That(t, actuator.Position(a), test.ShouldEqual, 2.0)
	test.That(t, actuator.UnitsToCounts(a, 1.5), test.ShouldEqual, 3072.0)
	test.That(t, actuator.UnitsToCounts(nil, 1.5), test.ShouldEqual, 0.0)

	zero := fake.New("broken", 0)
	zero.SetCounts(100)
	test.That(t, actuator.Position(zero), test.ShouldEqual, 0.0)
}

func TestStallDetector(t *testing.T) {
	clk := clock.NewMock()
	d := actuator.NewStallDetector(actuator.StallConfig{}, clk)

	t.Run("moving is not stalled", func(t *testing.T) {
		counts := 0.0
		for i := 0; i < 20; i++ {
			counts += 100
			d.Observe(0.5, counts)
			clk.Add(20 * time.Millisecond)
		}
		test.That(t, d.Stalled(), test.ShouldBeFalse)
	})

	t.Run("stopped under load stalls after the duration", func(t *testing.T) {
		d.Reset()
		for i := 0; i < 6; i++ {
			d.Observe(0.5, 1000)
			clk.Add(20 * time.Millisecond)
		}
		test.That(t, d.Stalled(), test.ShouldBeFalse)
		for i := 0; i < 15; i++ {
			d.Observe(0.5, 1000)
			clk.Add(20 * time.Millisecond)
		}
		test.That(t, d.Stalled(), test.ShouldBeTrue)
	})

	t.Run("low output never stalls", func(t *testing.T) {
		d.Reset()
		for i := 0; i < 30; i++ {
			d.Observe(0.05, 1000)
			clk.Add(20 * time.Millisecond)
		}
		test.That(t, d.Stalled(), test.ShouldBeFalse)
	})

	t.Run("reset clears a stall", func(t *testing.T) {
		for i := 0; i < 30; i++ {
			d.Observe(0.8, 1000)
			clk.Add(20 * time.Millisecond)
		}
		test.That(t, d.Stalled(), test.ShouldBeTrue)
		d.Reset()
		test.That(t, d.Stalled(), test.ShouldBeFalse)
	})
}

func TestConfigValidate(t *testing.T) {
	good := actuator.Config{Name: "lift", Model: "fake", CANID: 12, CountsPerUnit: 2048}
	test.That(t, good.Validate("path"), test.ShouldBeNil)

	for _, tc := range []struct {
		name   string
		mutate func(*actuator.Config)
		want   string
	}{
		{"no name", func(c *actuator.Config) { c.Name = "" }, "needs a name"},
		{"no model", func(c *actuator.Config) { c.Model = "" }, "needs a model"},
		{"negative id", func(c *actuator.Config) { c.CANID = -1 }, "invalid CAN ID -1"},
		{"id too large", func(c *actuator.Config) { c.CANID = 63 }, "invalid CAN ID 63"},
		{"zero counts", func(c *actuator.Config) { c.CountsPerUnit = 0 }, "counts_per_unit"},
		{"inverted stops", func(c *actuator.Config) {
			lo, hi := 5.0, 1.0
			c.HardStopMin, c.HardStopMax = &lo, &hi
		}, "hard_stop_min"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := good
			tc.mutate(&cfg)
			err := cfg.Validate("path")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, "path")
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.want)
		})
	}
}

func TestRegistry(t *testing.T) {
	models := actuator.Models()
	test.That(t, models, test.ShouldContain, "fake")
	test.That(t, models, test.ShouldContain, "talonsrx")
	test.That(t, models, test.ShouldContain, "falcon")

	_, ok := actuator.Lookup("no_such_model")
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, func() {
		actuator.Register("fake", func(actuator.Config, clock.Clock, logging.Logger) (actuator.Actuator, error) {
			return nil, nil
		})
	}, test.ShouldPanic)
}

func TestFactory(t *testing.T) {
	logger := logging.NewTestLogger(t)
	f := actuator.NewFactory(clock.NewMock(), logger)

	lift, err := f.Create(actuator.Config{Name: "lift", Model: "talonsrx", CANID: 12, CountsPerUnit: 2048})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lift.Name(), test.ShouldEqual, "lift")
	test.That(t, f.Controller(12), test.ShouldEqual, lift)
	test.That(t, f.Controller(13), test.ShouldBeNil)
	test.That(t, f.Controller(63), test.ShouldBeNil)
	test.That(t, f.Controller(-1), test.ShouldBeNil)

	_, err = f.Create(actuator.Config{Name: "rotate", Model: "falcon", CANID: 12, CountsPerUnit: 100})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `already used by actuator "lift"`)

	_, err = f.Create(actuator.Config{Name: "rotate", Model: "stepper", CANID: 13, CountsPerUnit: 100})
	test.That(t, errors.Is(err, actuator.ErrUnknownModel), test.ShouldBeTrue)

	_, err = f.Create(actuator.Config{Name: "rotate", Model: "falcon", CANID: 70, CountsPerUnit: 100})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid CAN ID 70")
}
