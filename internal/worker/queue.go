// Package worker runs display-configuration jobs one at a time, in order,
// on a single background goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned by jobs submitted after Close.
var ErrClosed = errors.New("worker queue closed")

// Result describes a finished job. It is what the completion callback sees.
type Result struct {
	Op       string
	Err      error
	Duration time.Duration
}

// Job is a handle to a submitted unit of work.
type Job struct {
	op   string
	fn   func(ctx context.Context) error
	done chan struct{}
	err  error
}

// Op returns the name the job was submitted under.
func (j *Job) Op() string { return j.op }

// Done is closed once the job has finished.
func (j *Job) Done() <-chan struct{} { return j.done }

// Err returns the job's error. It is only meaningful after Done is closed.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Job) finish(err error) {
	j.err = err
	close(j.done)
}

// Options configures a Queue.
type Options struct {
	Logger *slog.Logger
	// OnResult is called from the worker goroutine after every job.
	OnResult func(Result)
	// Timeout bounds each job. Zero means no limit.
	Timeout time.Duration
}

// Queue is a FIFO with exactly one worker. Submit never blocks.
type Queue struct {
	logger   *slog.Logger
	onResult func(Result)
	timeout  time.Duration

	mu      sync.Mutex
	pending []*Job
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// New starts a queue and its worker goroutine.
func New(opts Options) *Queue {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		logger:   logger,
		onResult: opts.OnResult,
		timeout:  opts.Timeout,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go q.run()
	return q
}

// Submit enqueues fn under the name op and returns immediately.
func (q *Queue) Submit(op string, fn func(ctx context.Context) error) *Job {
	job := &Job{op: op, fn: fn, done: make(chan struct{})}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		job.finish(ErrClosed)
		return job
	}
	q.pending = append(q.pending, job)
	depth := len(q.pending)
	q.mu.Unlock()

	q.logger.Debug("job queued", "op", op, "depth", depth)
	q.signal()
	return job
}

// Pending returns the number of jobs waiting to run.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops accepting jobs, lets queued ones finish and waits for the worker.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.signal()
	<-q.done
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		job := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.execute(job)
	}
}

func (q *Queue) execute(job *Job) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	start := time.Now()
	err := runJob(ctx, job)
	res := Result{Op: job.op, Err: err, Duration: time.Since(start)}

	if err != nil {
		q.logger.Warn("job failed", "op", job.op, "duration", res.Duration, "error", err)
	} else {
		q.logger.Debug("job finished", "op", job.op, "duration", res.Duration)
	}

	job.finish(err)
	if q.onResult != nil {
		q.onResult(res)
	}
}

// runJob calls the job's function, turning a panic into the job's error so
// the worker keeps serving the queue.
func runJob(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", job.op, r)
		}
	}()
	return job.fn(ctx)
}
