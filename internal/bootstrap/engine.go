// Package bootstrap wires the whole local stack up in one fixed sequence:
// clear the EVM port, launch anvil, restart the replica, fund the wallet,
// deploy the bridge, build and install the coprocessor canister, fetch its
// derived EVM address, deploy the contracts against it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Step is one named stage of the sequence.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Event reports step progress to an observer.
type Event struct {
	Step    string
	Index   int
	Total   int
	Done    bool
	Err     error
	Elapsed time.Duration
}

// Observer receives an Event when a step starts and when it finishes.
type Observer func(Event)

// Engine executes steps strictly in order. The first failure aborts the
// remainder; there are no retries at the step level.
type Engine struct {
	log      *zap.Logger
	observer Observer
}

func NewEngine(log *zap.Logger, observer Observer) *Engine {
	return &Engine{log: log, observer: observer}
}

// Execute runs every step in order, stopping at the first error. The
// returned error names the failed step.
func (e *Engine) Execute(ctx context.Context, steps []Step) error {
	total := len(steps)
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.notify(Event{Step: step.Name, Index: i, Total: total})
		e.log.Info("step started", zap.String("step", step.Name), zap.Int("index", i+1), zap.Int("total", total))

		start := time.Now()
		err := step.Run(ctx)
		elapsed := time.Since(start)

		e.notify(Event{Step: step.Name, Index: i, Total: total, Done: true, Err: err, Elapsed: elapsed})

		if err != nil {
			e.log.Error("step failed", zap.String("step", step.Name), zap.Duration("elapsed", elapsed), zap.Error(err))
			return fmt.Errorf("%s: %w", step.Name, err)
		}
		e.log.Info("step finished", zap.String("step", step.Name), zap.Duration("elapsed", elapsed))
	}
	return nil
}

func (e *Engine) notify(ev Event) {
	if e.observer != nil {
		e.observer(ev)
	}
}
