package task

import (
	"log/slog"
	"sync"
)

// Job is a unit of work executed by the worker pool.
type Job func()

// JobQueue is an unbounded FIFO shared by many consumers. Once closed it
// refuses new jobs but keeps handing out the ones already queued.
type JobQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []Job
	closed bool
	logger *slog.Logger
}

// NewJobQueue creates an empty open queue.
func NewJobQueue(logger *slog.Logger) *JobQueue {
	q := &JobQueue{logger: logger}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a job to the back of the queue.
// Returns ErrQueueClosed after Close.
func (q *JobQueue) Enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.jobs = append(q.jobs, job)
	q.cond.Signal()

	q.logger.Debug("job enqueued", "queue_len", len(q.jobs))
	return nil
}

// Dequeue blocks until a job is available. The second result is false only
// when the queue is closed and drained.
func (q *JobQueue) Dequeue() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.jobs) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.jobs) == 0 {
		return nil, false
	}

	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	return job, true
}

// Close stops accepting jobs and wakes every waiting consumer.
func (q *JobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
		q.logger.Info("job queue closed", "pending", len(q.jobs))
	}
}

// Len returns the number of queued jobs.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
