package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/shelf/internal/task"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type dispatch[I any] struct {
	index int
	item  I
}

type verdict struct {
	index   int
	process bool
	err     error
}

// runParallel validates every item in order and distributes the ones that
// still need work round robin over W bounded worker queues. Validation
// covers the first half of the progress range, collecting results the second.
func (o *Orchestrator[A, I, O]) runParallel(ctx context.Context, env Env, rep *Reporter, items []I, opts task.Options) error {
	total := len(items)
	workers := opts.Workers()

	// Results are buffered for every item so workers never block on them.
	results := make(chan itemResult, total)
	queues := make([]chan dispatch[I], workers)

	var g errgroup.Group
	for w := range queues {
		queue := make(chan dispatch[I], 2*workers)
		queues[w] = queue
		workerEnv := env
		workerEnv.Worker = w
		workerEnv.Logger = env.Logger.With("worker", w)
		g.Go(func() error {
			for d := range queue {
				results <- o.processOne(ctx, workerEnv, d.index, d.item)
			}
			return nil
		})
	}

	verdicts := make(chan verdict, total)
	go func() {
		defer close(verdicts)
		for i, item := range items {
			done, err := o.alreadyCompleted(ctx, env, item)
			verdicts <- verdict{index: i, process: err != nil || !done, err: err}
		}
	}()

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), workers)
	}

	dispatched := 0
	for v := range verdicts {
		if rep.Err() != nil {
			// Keep consuming so the validator can finish; dispatch nothing more.
			continue
		}
		if v.err != nil {
			rep.LogError(fmt.Sprintf("checking %s: %v", o.processor.ItemLabel(items[v.index]), v.err))
		}
		if !v.process {
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				env.Logger.Warn("rate limiter wait failed", "error", err)
			}
		}

		queues[dispatched%workers] <- dispatch[I]{index: v.index, item: items[v.index]}
		dispatched++
		rep.Progress(float64(v.index+1) / float64(total) * 0.5)
	}

	// Closing a queue is the shutdown signal for its worker.
	for _, queue := range queues {
		close(queue)
	}

	env.Logger.Info("validation finished", "item_count", total, "dispatched", dispatched)

	if dispatched == 0 {
		rep.Progress(1.0)
	}
	o.drain(env, rep, results, dispatched)

	if err := g.Wait(); err != nil {
		return err
	}
	return rep.Err()
}

// drain collects dispatched results. Each wait that exceeds waitTick is
// logged and retried; it never cancels the run.
func (o *Orchestrator[A, I, O]) drain(env Env, rep *Reporter, results <-chan itemResult, dispatched int) {
	timer := time.NewTimer(o.waitTick)
	defer timer.Stop()

	for completed := 0; completed < dispatched; {
		select {
		case res := <-results:
			completed++
			if rep.Err() != nil {
				continue
			}
			o.report(env, rep, res)
			rep.Progress(0.5 + 0.5*float64(completed)/float64(dispatched))
		case <-timer.C:
			env.Logger.Info("waiting for worker results...",
				"completed", completed,
				"dispatched", dispatched)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(o.waitTick)
	}
}
