package dispatch

import "errors"

var (
	// ErrQueueClosed is returned by Push after Close, and by Pop once a
	// closed queue is empty.
	ErrQueueClosed = errors.New("dispatch: queue closed")

	// ErrWorkerRunning is returned when starting a worker twice.
	ErrWorkerRunning = errors.New("dispatch: worker already running")

	// ErrJobPanicked wraps a panic recovered from a job.
	ErrJobPanicked = errors.New("dispatch: job panicked")
)
