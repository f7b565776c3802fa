package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Executor runs one queued method invocation.
type Executor interface {
	ExecuteMethod(ctx context.Context, roomID, itemID int64, method string, args ...any) (any, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, roomID, itemID int64, method string, args ...any) (any, error)

// ExecuteMethod implements Executor.
func (f ExecutorFunc) ExecuteMethod(ctx context.Context, roomID, itemID int64, method string, args ...any) (any, error) {
	return f(ctx, roomID, itemID, method, args...)
}

// Result reports the outcome of one job.
type Result struct {
	Job      Job
	Value    any
	Err      error
	Duration time.Duration
}

// Logger defines the logging interface used by the Worker.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// WorkerOptions configures a Worker.
type WorkerOptions struct {
	// JobTimeout bounds each job through its context. Zero means no bound.
	JobTimeout time.Duration

	// DrainOnShutdown runs pending jobs during Stop instead of discarding them.
	DrainOnShutdown bool

	// OnResult is called after every job, on the worker goroutine.
	OnResult func(Result)
}

// Stats is a snapshot of worker counters.
type Stats struct {
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	Discarded uint64 `json:"discarded"`
	Pending   int    `json:"pending"`
	Running   bool   `json:"running"`
}

// Worker is the single consumer of a Queue.
type Worker struct {
	queue  *Queue
	exec   Executor
	opts   WorkerOptions
	logger Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	processed atomic.Uint64
	failed    atomic.Uint64
	discarded atomic.Uint64
}

// NewWorker returns a stopped worker for q.
func NewWorker(q *Queue, exec Executor, opts WorkerOptions) *Worker {
	return &Worker{
		queue:  q,
		exec:   exec,
		opts:   opts,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for job failures.
func (w *Worker) SetLogger(logger Logger) {
	w.logger = logger
}

// Start launches the worker goroutine. The worker runs until Stop; ctx
// supplies values to jobs but cancelling it does not stop the worker.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrWorkerRunning
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.running = true
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx, w.done)

	w.logger.Info("dispatch worker started",
		"job_timeout", w.opts.JobTimeout,
		"drain_on_shutdown", w.opts.DrainOnShutdown,
	)
	return nil
}

// Stop closes the queue and waits for the worker to exit. Pending jobs are
// run or discarded according to DrainOnShutdown. If ctx expires first, the
// worker is cancelled after its current job and the rest are discarded.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	cancel, done := w.cancel, w.done
	w.running = false
	w.mu.Unlock()

	if w.opts.DrainOnShutdown {
		w.queue.Close()
	} else {
		w.discard(w.queue.CloseAndDrain())
	}

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("dispatch: drain interrupted: %w", ctx.Err())
		w.discard(w.queue.CloseAndDrain())
		cancel()
		<-done
	}
	cancel()

	w.logger.Info("dispatch worker stopped",
		"processed", w.processed.Load(),
		"failed", w.failed.Load(),
		"discarded", w.discarded.Load(),
	)
	return err
}

func (w *Worker) discard(jobs []Job) {
	if len(jobs) == 0 {
		return
	}
	w.discarded.Add(uint64(len(jobs)))
	w.logger.Warn("discarding queued jobs", "count", len(jobs))
}

// Stats returns the current counters.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	return Stats{
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		Discarded: w.discarded.Load(),
		Pending:   w.queue.Len(),
		Running:   running,
	}
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		job, err := w.queue.Pop(ctx)
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			w.discard([]Job{job})
			return
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	jobCtx := ctx
	if w.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.opts.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	value, err := w.execute(jobCtx, job)
	res := Result{Job: job, Value: value, Err: err, Duration: time.Since(start)}

	w.processed.Add(1)
	if err != nil {
		w.failed.Add(1)
		w.logger.Warn("queued job failed",
			"job_id", job.ID,
			"room_id", job.RoomID,
			"item_id", job.ItemID,
			"method", job.Method,
			"error", err,
		)
	} else {
		w.logger.Debug("queued job done",
			"job_id", job.ID,
			"method", job.Method,
			"duration", res.Duration,
		)
	}

	if w.opts.OnResult != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("result hook panicked", "job_id", job.ID, "panic", r)
				}
			}()
			w.opts.OnResult(res)
		}()
	}
}

func (w *Worker) execute(ctx context.Context, job Job) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return w.exec.ExecuteMethod(ctx, job.RoomID, job.ItemID, job.Method, job.Args...)
}
