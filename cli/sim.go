package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"github.com/team302/mechcore/components/actuator/fake"
	"github.com/team302/mechcore/config"
	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/mechanism/climber"
	"github.com/team302/mechcore/mechanism/intake"
	"github.com/team302/mechcore/robot"
	"github.com/team302/mechcore/state"
	"github.com/team302/mechcore/telemetry"
	"github.com/team302/mechcore/utils"
)

const defaultDuration = 5 * time.Second

type simApp struct {
	out    io.Writer
	logger logging.Logger
}

func (a *simApp) before(c *cli.Context) error {
	if a.logger != nil {
		return nil
	}
	if c.Bool(flagDebug) {
		a.logger = logging.NewDebugLogger("mechsim")
	} else {
		a.logger = logging.NewLogger("mechsim")
	}
	return nil
}

func (a *simApp) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *simApp) validateAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(flagConfig))
	if err != nil {
		return err
	}
	a.printf("%s is valid: %d actuators, %d digital inputs, %d mechanisms",
		cfg.ConfigFilePath, len(cfg.Actuators), len(cfg.DigitalInputs), len(cfg.Mechanisms))
	return nil
}

func (a *simApp) statesAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one mechanism type")
	}
	var descs []state.Descriptor
	switch t := mechanism.Type(c.Args().First()); t {
	case mechanism.TypeClimber:
		descs = climber.Descriptors()
	case mechanism.TypeIntakeLeft, mechanism.TypeIntakeRight:
		descs = intake.Descriptors()
	default:
		return config.NewUnknownMechanismTypeError(t)
	}
	table, err := state.NewTable(descs)
	if err != nil {
		return err
	}
	for _, d := range table.Descriptors() {
		initial := ""
		if d.Initial {
			initial = " (initial)"
		}
		a.printf("%2d %-24s %-32s %s%s", d.ID, d.Name, d.Key, d.Category, initial)
	}
	return nil
}

func (a *simApp) runAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(flagConfig))
	if err != nil {
		return err
	}
	duration := c.Duration(flagDuration)
	if duration <= 0 {
		return errors.Errorf("--%s must be positive", flagDuration)
	}

	var clk clock.Clock
	var mock *clock.Mock
	if c.Bool(flagRealtime) {
		clk = clock.New()
	} else {
		mock = clock.NewMock()
		clk = mock
	}

	memory := telemetry.NewMemory()
	sinks := []telemetry.Sink{memory, telemetry.NewLogSink(a.logger.Sublogger("telemetry"), clk, telemetry.DefaultLogRate)}
	if addr := c.String(flagMetricsAddr); addr != "" {
		reg := prometheus.NewRegistry()
		promSink, err := telemetry.NewPrometheusSink(reg, "mechsim")
		if err != nil {
			return err
		}
		sinks = append(sinks, promSink)
		stop := a.serveMetrics(addr, reg)
		defer stop()
	}

	in, err := cfg.InputSource(clk)
	if err != nil {
		return err
	}
	r, err := robot.Build(cfg, robot.Deps{
		Input:  in,
		Sink:   telemetry.NewMulti(a.logger, sinks...),
		Clock:  clk,
		Logger: a.logger,
	})
	if err != nil {
		return err
	}
	r.Loop.AddPreStepHook(func(_ context.Context, dt time.Duration) {
		for _, name := range r.ActuatorNames() {
			if sim, ok := r.Actuator(name).(*fake.Actuator); ok {
				sim.Step(dt)
			}
		}
	})

	if mock != nil {
		period := r.Loop.Period()
		for elapsed := time.Duration(0); elapsed < duration; elapsed += period {
			if c.Context.Err() != nil {
				break
			}
			mock.Add(period)
			r.Loop.Step(c.Context)
		}
	} else {
		if err := r.Loop.Start(c.Context); err != nil {
			return err
		}
		goutils.SelectContextOrWait(c.Context, duration)
		r.Loop.Stop()
	}

	a.report(r, memory)
	return nil
}

type axisReporter interface {
	Position(id mechanism.AxisID) float64
	AxisConfig(id mechanism.AxisID) mechanism.AxisConfig
	ZeroEvents() []mechanism.ZeroEvent
}

func (a *simApp) report(r *robot.Robot, memory *telemetry.Memory) {
	a.printf("after %d cycles:", r.Loop.Steps())
	for _, t := range r.Registry.Types() {
		m, err := r.Registry.Manager(t)
		if err != nil {
			a.printf("%s: not running: %v", t, err)
			continue
		}
		desc := m.Current().Descriptor()
		a.printf("%s: %s (%s), %d state changes", t, desc.Name, desc.Key, memory.Count(string(t), state.KeyStateName))
		mech, ok := m.Mechanism().(axisReporter)
		if !ok {
			continue
		}
		for _, id := range []mechanism.AxisID{mechanism.Primary, mechanism.Secondary} {
			axis := mech.AxisConfig(id)
			if axis.Name == "" {
				continue
			}
			a.printf("  %-8s %8.3f %s", axis.Name, mech.Position(id), axis.Unit)
		}
		if events := mech.ZeroEvents(); len(events) > 0 {
			last := events[len(events)-1]
			a.printf("  re-zeroed %d times, last %s on %s", len(events), last.Cause, mech.AxisConfig(last.Axis).Name)
		}
	}
}

// serveMetrics serves reg on addr until the returned func is called.
func (a *simApp) serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	workers := utils.NewStoppableWorkers(a.logger, func(context.Context) {
		a.logger.Infow("serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorw("metrics server failed", "error", err)
		}
	})
	return func() {
		goutils.UncheckedError(server.Close())
		workers.Stop()
	}
}
