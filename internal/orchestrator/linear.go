package orchestrator

import (
	"context"
	"fmt"

	"github.com/phrazzld/shelf/internal/task"
)

// runLinear processes items one by one in enumeration order, reporting
// (i+1)/total after each item.
func (o *Orchestrator[A, I, O]) runLinear(ctx context.Context, env Env, rep *Reporter, items []I, opts task.Options) error {
	total := float64(len(items))

	for i, item := range items {
		if opts.SkipCompletedInLinear {
			done, err := o.alreadyCompleted(ctx, env, item)
			if err != nil {
				rep.LogError(fmt.Sprintf("checking %s: %v", o.processor.ItemLabel(item), err))
			}
			if done {
				env.Logger.Debug("item already completed", "item", o.processor.ItemLabel(item))
				rep.Progress(float64(i+1) / total)
				if err := rep.Err(); err != nil {
					return err
				}
				continue
			}
		}

		o.report(env, rep, o.processOne(ctx, env, i, item))
		rep.Progress(float64(i+1) / total)
		if err := rep.Err(); err != nil {
			return err
		}
	}
	return nil
}
