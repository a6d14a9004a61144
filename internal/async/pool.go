// Package async runs independent documents through a Processor on a fixed set of workers.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/docrouter/internal/entity"
)

// Processor is satisfied by pipeline.Dispatcher.
type Processor interface {
	Process(ctx context.Context, raw, threadID string) entity.Result
}

// Job is one document to route. Label identifies it in logs and outcomes.
type Job struct {
	Label    string
	Content  string
	ThreadID string
}

// Outcome pairs a job with its result, in submission order.
type Outcome struct {
	Job     Job
	Result  entity.Result
	Elapsed time.Duration
}

type Pool struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithProcessTimeout bounds each job. Zero leaves cancellation to the caller's context.
func WithProcessTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPool(proc Processor, logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		proc:    proc,
		logger:  logger,
		workers: 4,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type indexed struct {
	i   int
	job Job
}

// Run processes every job and returns outcomes in the order of jobs. Jobs not yet
// started when ctx is cancelled are skipped and leave a nil Result.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, len(jobs))
	ch := make(chan indexed)

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for it := range ch {
				out[it.i] = p.runOne(ctx, workerID, it.job)
			}
		}(w + 1)
	}

feed:
	for i, job := range jobs {
		out[i].Job = job
		if ctx.Err() != nil {
			p.logger.Warn("async.run.cancelled", "pending", len(jobs)-i)
			break
		}
		select {
		case ch <- indexed{i: i, job: job}:
		case <-ctx.Done():
			p.logger.Warn("async.run.cancelled", "pending", len(jobs)-i)
			break feed
		}
	}
	close(ch)
	wg.Wait()
	return out
}

func (p *Pool) runOne(ctx context.Context, workerID int, job Job) Outcome {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	start := time.Now()
	res := p.proc.Process(ctx, job.Content, job.ThreadID)
	elapsed := time.Since(start)

	if res.IsError() {
		p.logger.Warn("async.job.error", "worker_id", workerID, "job", job.Label, "thread_id", res.ThreadID(), "elapsed_ms", elapsed.Milliseconds())
	} else {
		p.logger.Info("async.job.ok", "worker_id", workerID, "job", job.Label, "thread_id", res.ThreadID(), "elapsed_ms", elapsed.Milliseconds())
	}
	return Outcome{Job: job, Result: res, Elapsed: elapsed}
}
