// Package shardqueue runs jobs on a fixed set of workers partitioned by key.
// Jobs with the same key run one at a time in submission order; jobs with
// different keys may run in parallel.
//
// Callers must not Submit concurrently for the same key if they rely on the
// FIFO order between those submissions.
package shardqueue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

type queuedJob struct {
	ctx context.Context
	job Job
}

// Executor executes Jobs on shard workers selected by a stable hash of the key.
type Executor struct {
	cfg    Config
	queues []chan queuedJob

	// mu is held shared by Submit from the closed check until the job is
	// queued, and exclusively by Stop while it closes done, so no job can
	// land on a queue whose worker has already exited.
	mu     sync.RWMutex
	done   chan struct{}
	closed bool

	wg sync.WaitGroup
}

// New starts the shard workers. Zero config values take defaults.
func New(cfg Config) *Executor {
	cfg = cfg.withDefaults()
	cfg.Logger = cfg.Logger.With("module", "shardqueue")

	p := &Executor{
		cfg:    cfg,
		queues: make([]chan queuedJob, cfg.Shards),
		done:   make(chan struct{}),
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		p.queues[i] = ch
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}
	return p
}

// Submit enqueues job on the shard derived from key.
//
//   - Returns ErrExecutorClosed if the executor is stopped.
//   - Returns a *QueueFullError if the shard stays full for EnqueueTimeout.
//   - Returns ctx.Err() if ctx is cancelled first.
func (p *Executor) Submit(ctx context.Context, key string, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrExecutorClosed
	}

	shard := p.shardFor(key)
	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{ctx: ctx, job: job}:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier waits until every job submitted for key before the call has run.
func (p *Executor) Barrier(ctx context.Context, key string) error {
	done := make(chan struct{})
	err := p.Submit(ctx, key, JobFunc(func(context.Context) error {
		close(done)
		return nil
	}))
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop lets every worker drain its queue and waits for them. It is
// idempotent and safe for concurrent use.
func (p *Executor) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	ctx := context.Background()
	p.cfg.Logger.Debug(ctx, "stopping executor", "shards", p.cfg.Shards)
	p.wg.Wait()
	p.cfg.Logger.Debug(ctx, "executor stopped")
}

func (p *Executor) Close() error {
	p.Stop()
	return nil
}

func (p *Executor) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()
	label := labelFor(idx)

	for {
		select {
		case qj := <-ch:
			p.execute(label, qj)
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-p.done:
			drained := 0
			for {
				select {
				case qj := <-ch:
					if err := p.runOnce(qj); err != nil {
						p.abandon(qj, unwrapPermanent(err))
					}
					drained++
				default:
					if drained > 0 {
						p.cfg.Logger.Debug(context.Background(), "worker drained queue", "shard", idx, "jobs", drained)
					}
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

// execute runs a job with retries. A job whose context is already done is
// skipped and abandoned.
func (p *Executor) execute(label string, qj queuedJob) {
	if qj.job == nil {
		return
	}
	if err := qj.ctx.Err(); err != nil {
		p.abandon(qj, err)
		return
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.MaxInterval = p.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := p.runOnce(qj)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil {
			return
		}
		if attempt >= p.cfg.MaxAttempts || !p.retryable(err) {
			p.abandon(qj, unwrapPermanent(err))
			return
		}

		retriesTotal.WithLabelValues(label).Inc()
		wait := exp.NextBackOff()
		p.cfg.Logger.Debug(qj.ctx, "job failed, retrying", "attempt", attempt, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-p.done:
			timer.Stop()
			p.abandon(qj, unwrapPermanent(err))
			return
		case <-qj.ctx.Done():
			timer.Stop()
			p.abandon(qj, qj.ctx.Err())
			return
		}
	}
}

// runOnce shields the worker from a panicking job.
func (p *Executor) runOnce(qj queuedJob) (err error) {
	if qj.job == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			p.cfg.Logger.Error(qj.ctx, "job panic", "panic", r)
			err = Permanent(&PanicError{Value: r})
		}
	}()
	return qj.job.Run(qj.ctx)
}

func (p *Executor) retryable(err error) bool {
	if isPermanent(err) {
		return false
	}
	if p.cfg.Retryable != nil {
		return p.cfg.Retryable(err)
	}
	return true
}

// abandon reports a job that will not run again.
func (p *Executor) abandon(qj queuedJob, err error) {
	if a, ok := qj.job.(Abandoner); ok {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.cfg.Logger.Error(qj.ctx, "abandon hook panic", "panic", r)
				}
			}()
			a.Abandon(err)
		}()
	}
	p.handleError(err)
}

func (p *Executor) handleError(err error) {
	if err == nil || p.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.cfg.Logger.Error(context.Background(), "error handler panic", "panic", r)
		}
	}()
	p.cfg.ErrorHandler(err)
}

func (p *Executor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.cfg.Shards))
}
