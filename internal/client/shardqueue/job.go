package shardqueue

import "context"

// Job is a unit of work executed by an Executor.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to a Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Abandoner is implemented by jobs that must learn when they will not run
// again: skipped on a cancelled context, out of attempts, rejected as
// permanent, or cut short by Stop. Abandon is called once, on the worker.
type Abandoner interface {
	Abandon(err error)
}
