package dispatch

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPriority is used for jobs pushed with priority 0 when the queue
// was created without an explicit default.
const DefaultPriority = 50

// Job is one queued method invocation on an item in a room.
type Job struct {
	ID          uuid.UUID `json:"id"`
	RoomID      int64     `json:"roomId"`
	ItemID      int64     `json:"itemId"`
	Method      string    `json:"method"`
	Args        []any     `json:"args,omitempty"`
	Priority    int       `json:"priority"`
	SubmittedAt time.Time `json:"submittedAt"`

	seq uint64
}

type jobHeap []Job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(Job)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = Job{}
	*h = old[:n-1]
	return j
}

// Queue is a stable priority queue of jobs, safe for concurrent use.
type Queue struct {
	mu              sync.Mutex
	jobs            jobHeap
	seq             uint64
	closed          bool
	defaultPriority int

	wake chan struct{}
	done chan struct{}
	now  func() time.Time
}

// NewQueue returns an empty queue. Jobs pushed with priority 0 get
// defaultPriority; pass 0 to use DefaultPriority.
func NewQueue(defaultPriority int) *Queue {
	if defaultPriority == 0 {
		defaultPriority = DefaultPriority
	}
	return &Queue{
		defaultPriority: defaultPriority,
		wake:            make(chan struct{}, 1),
		done:            make(chan struct{}),
		now:             time.Now,
	}
}

// Push enqueues job, filling in its ID, default priority and submission
// time, and returns the stored copy.
func (q *Queue) Push(job Job) (Job, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return Job{}, ErrQueueClosed
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Priority == 0 {
		job.Priority = q.defaultPriority
	}
	job.SubmittedAt = q.now()
	q.seq++
	job.seq = q.seq
	heap.Push(&q.jobs, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return job, nil
}

// TryPop removes the next job without waiting.
func (q *Queue) TryPop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return Job{}, false
	}
	return heap.Pop(&q.jobs).(Job), true
}

// Pop removes the next job, waiting until one is pushed, the queue is
// closed and empty (ErrQueueClosed), or ctx is done.
func (q *Queue) Pop(ctx context.Context) (Job, error) {
	for {
		if job, ok := q.TryPop(); ok {
			return job, nil
		}
		select {
		case <-q.done:
			// Closed; return anything pushed before Close.
			if job, ok := q.TryPop(); ok {
				return job, nil
			}
			return Job{}, ErrQueueClosed
		default:
		}

		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-q.wake:
		case <-q.done:
		}
	}
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Pending returns the pending jobs in the order they would run.
func (q *Queue) Pending() []Job {
	q.mu.Lock()
	cp := make(jobHeap, len(q.jobs))
	copy(cp, q.jobs)
	q.mu.Unlock()

	out := make([]Job, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heap.Pop(&cp).(Job))
	}
	return out
}

// Close stops accepting jobs. Jobs already queued can still be popped.
func (q *Queue) Close() {
	q.closeAndDrain(false)
}

// CloseAndDrain stops accepting jobs and removes every pending job,
// returning them in run order.
func (q *Queue) CloseAndDrain() []Job {
	return q.closeAndDrain(true)
}

func (q *Queue) closeAndDrain(drain bool) []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	if !drain {
		return nil
	}
	out := make([]Job, 0, len(q.jobs))
	for len(q.jobs) > 0 {
		out = append(out, heap.Pop(&q.jobs).(Job))
	}
	return out
}
