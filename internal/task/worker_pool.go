package task

import (
	"fmt"
	"log/slog"
	"sync"
)

// WorkerPool runs jobs from a shared queue on a fixed number of long-lived
// goroutines. Shutdown waits for every queued job to finish; there is no
// cancellation of a job once it has started.
type WorkerPool struct {
	// queue is shared by all workers
	queue *JobQueue

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once

	// logger for structured logging
	logger *slog.Logger

	// errorHandler is called when a job panics
	// If nil, panics are only logged
	errorHandler func(workerID int, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 8,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	return &WorkerPool{
		queue:       NewJobQueue(logger),
		workerCount: workerCount,
		logger:      logger,
	}
}

// SetErrorHandler sets the handler invoked when a job panics.
// Must be called before Start.
func (p *WorkerPool) SetErrorHandler(handler func(workerID int, err error)) {
	p.errorHandler = handler
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.workerCount
}

// Start launches the workers. Calling it more than once has no effect.
func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool", "worker_count", p.workerCount)
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	})
}

// Submit enqueues a job. It never blocks; it fails with ErrQueueClosed once
// Shutdown has been called.
func (p *WorkerPool) Submit(job Job) error {
	return p.queue.Enqueue(job)
}

// Shutdown closes the queue and waits until every worker has drained it.
func (p *WorkerPool) Shutdown() {
	p.stopOnce.Do(func() {
		p.logger.Info("shutting down worker pool")
		p.queue.Close()
		p.wg.Wait()
		p.logger.Info("worker pool stopped")
	})
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)
	for {
		job, ok := p.queue.Dequeue()
		if !ok {
			p.logger.Debug("job queue drained, stopping worker", "worker_id", id)
			return
		}
		p.execute(id, job)
	}
}

// execute runs a job, converting a panic into an error for the handler.
func (p *WorkerPool) execute(workerID int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("job panicked: %v", r)
			p.logger.Error("job panicked", "worker_id", workerID, "error", err)
			if p.errorHandler != nil {
				p.errorHandler(workerID, err)
			}
		}
	}()
	job()
}
