// Package utils holds small concurrency helpers shared by the control loop and the CLI.
package utils

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	goutils "go.viam.com/utils"

	"github.com/team302/mechcore/logging"
)

// StoppableWorkers is a collection of goroutines that can be stopped at a later time.
type StoppableWorkers interface {
	AddWorkers(...func(context.Context))
	Stop()
	Context() context.Context
}

// stoppableWorkersImpl is only used through the interface so that its WaitGroup is never copied.
type stoppableWorkersImpl struct {
	mu         sync.Mutex
	logger     logging.Logger
	cancelCtx  context.Context
	cancelFunc func()
	active     sync.WaitGroup
}

// NewStoppableWorkers runs the functions in separate goroutines. They can be stopped later.
func NewStoppableWorkers(logger logging.Logger, funcs ...func(context.Context)) StoppableWorkers {
	return NewStoppableWorkersWithContext(context.Background(), logger, funcs...)
}

// NewStoppableWorkersWithContext is NewStoppableWorkers with workers that also stop when ctx is
// done.
func NewStoppableWorkersWithContext(
	ctx context.Context,
	logger logging.Logger,
	funcs ...func(context.Context),
) StoppableWorkers {
	cancelCtx, cancelFunc := context.WithCancel(ctx)
	workers := &stoppableWorkersImpl{logger: logger, cancelCtx: cancelCtx, cancelFunc: cancelFunc}
	workers.AddWorkers(funcs...)
	return workers
}

// AddWorkers starts a goroutine for each function. After Stop it does nothing. A worker that
// panics is logged and does not take the others down.
func (sw *stoppableWorkersImpl) AddWorkers(funcs ...func(context.Context)) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.cancelCtx.Err() != nil {
		return
	}

	sw.active.Add(len(funcs))
	for _, f := range funcs {
		f := f
		goutils.PanicCapturingGo(func() {
			defer sw.active.Done()
			// logged before Done so Stop returns after the report
			defer func() {
				if err := recover(); err != nil && sw.logger != nil {
					sw.logger.Errorw("worker panicked", "error", err)
				}
			}()
			f(sw.cancelCtx)
		})
	}
}

// Stop cancels the workers' context and waits for them to return.
func (sw *stoppableWorkersImpl) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.cancelFunc()
	sw.active.Wait()
}

// Context is the context the workers watch.
func (sw *stoppableWorkersImpl) Context() context.Context {
	return sw.cancelCtx
}

// Every returns a worker that calls fn once per period of clk until its context is done. The
// first call happens one period after the worker starts.
func Every(clk clock.Clock, period time.Duration, fn func(context.Context)) func(context.Context) {
	if clk == nil {
		clk = clock.New()
	}
	return func(ctx context.Context) {
		ticker := clk.Ticker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			// a tick and a cancel may arrive together
			if ctx.Err() != nil {
				return
			}
			fn(ctx)
		}
	}
}
