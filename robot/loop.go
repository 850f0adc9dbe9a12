package robot

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/team302/mechcore/logging"
	"github.com/team302/mechcore/utils"
)

// PreStepHook runs at the start of every step with the time since the previous step.
type PreStepHook func(ctx context.Context, dt time.Duration)

// Loop steps every registered mechanism once per period.
type Loop struct {
	registry *Registry
	period   time.Duration
	clock    clock.Clock
	logger   logging.Logger

	mu       sync.Mutex
	hooks    []PreStepHook
	workers  utils.StoppableWorkers
	steps    int
	lastStep time.Time
}

// NewLoop returns a stopped loop over registry.
func NewLoop(registry *Registry, period time.Duration, clk clock.Clock, logger logging.Logger) (*Loop, error) {
	if registry == nil {
		return nil, errors.New("control loop needs a registry")
	}
	if period <= 0 {
		return nil, errors.Errorf("control loop needs a positive period, got %v", period)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{registry: registry, period: period, clock: clk, logger: logger}, nil
}

// Period returns the loop's period.
func (l *Loop) Period() time.Duration {
	return l.period
}

// AddPreStepHook adds a hook that runs before the mechanisms each step, e.g. to advance a
// simulation.
func (l *Loop) AddPreStepHook(hook PreStepHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

// Step runs one control cycle: the pre-step hooks, then for each mechanism in registration
// order its transition check, its active state's Run and its Update. A mechanism whose
// manager cannot be built yet is skipped.
func (l *Loop) Step(ctx context.Context) {
	l.mu.Lock()
	now := l.clock.Now()
	dt := l.period
	if !l.lastStep.IsZero() {
		dt = now.Sub(l.lastStep)
	}
	l.lastStep = now
	l.steps++
	hooks := append([]PreStepHook(nil), l.hooks...)
	l.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, dt)
	}
	for _, t := range l.registry.Types() {
		m, err := l.registry.Manager(t)
		if err != nil {
			continue
		}
		m.CheckForStateTransition(ctx)
		m.Run()
		m.Mechanism().Update()
	}
}

// Steps returns how many cycles have run.
func (l *Loop) Steps() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.steps
}

// Start runs Step every period until ctx is done or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.workers != nil {
		return errors.New("control loop already started")
	}
	l.logger.Infow("starting control loop", "period", l.period, "mechanisms", l.registry.Types())
	l.workers = utils.NewStoppableWorkersWithContext(ctx, l.logger, utils.Every(l.clock, l.period, l.Step))
	return nil
}

// Stop stops a started loop and waits for the current step to finish. The loop may be started
// again afterwards.
func (l *Loop) Stop() {
	l.mu.Lock()
	workers := l.workers
	l.workers = nil
	l.mu.Unlock()
	if workers != nil {
		workers.Stop()
		l.logger.Infow("stopped control loop", "steps", l.Steps())
	}
}
