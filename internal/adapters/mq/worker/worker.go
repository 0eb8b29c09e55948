// Package worker defines worker contracts for asynchronous simulation runs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/survivor/internal/adapters/mq/queue"
	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/pkg/logger"
	"github.com/okian/survivor/pkg/metrics"
)

// Default worker configuration constants. Each job already fans trials out
// across CPUs inside the simulator, so the pool stays small.
const (
	defaultPoolSize       = 2
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Runner executes one Monte Carlo simulation.
type Runner interface {
	Run(ctx context.Context, startWeek int, entries []model.Entry, trials int, seed int64) (model.SimulationResult, error)
}

// Sink receives job outcomes.
type Sink interface {
	// Started marks a job as picked up by a worker.
	Started(ctx context.Context, runID string)
	// Complete records a finished simulation result.
	Complete(ctx context.Context, runID string, result model.SimulationResult)
	// Fail records a job that ended in error.
	Fail(ctx context.Context, runID string, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes simulation jobs and reports outcomes through the Sink.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing simulation jobs.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	sink   Sink
	name   string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, runner Runner, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		runner:   runner,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob handles a single simulation job.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	start := time.Now()

	w.sink.Started(ctx, job.RunID)

	result, err := w.runner.Run(ctx, job.StartWeek, job.Entries, job.Trials, job.Seed)
	if err != nil {
		metrics.RecordJobFailed()
		metrics.RecordEngineError("worker", "simulation_error")
		w.logger.Error(ctx, "simulation failed for job",
			logger.String("runID", job.RunID),
			logger.Error(err),
		)
		w.sink.Fail(ctx, job.RunID, err)
		return fmt.Errorf("failed to run job %s: %w", job.RunID, err)
	}

	// The simulator mints its own run ID; the submission ID wins so the
	// caller can correlate.
	result.RunID = job.RunID
	w.sink.Complete(ctx, job.RunID, result)

	metrics.RecordJobCompleted()
	metrics.RecordSimulation(job.Trials, time.Since(start).Seconds())

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	runner  Runner
	sink    Sink

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, runner Runner, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = defaultPoolSize
		if cpus := runtime.NumCPU() / 4; cpus > workerCount {
			workerCount = cpus
		}
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		runner:   runner,
		sink:     sink,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			runner,
			sink,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateActiveWorkers(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}

	metrics.UpdateActiveWorkers(0)
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateActiveWorkers(0)

	return nil
}
