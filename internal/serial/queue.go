// Package serial provides a FIFO, single-worker task queue.
//
// A Queue runs the functions submitted to it one at a time, in
// submission order, on a worker goroutine.  Components use it in place
// of a mutex when a sequence of state transitions must never interleave
// and callers need to know that a transition has fully committed before
// they continue (Sync).
package serial

import "sync"

// Queue is a serial task queue.  The zero value is ready to use.
//
// The worker goroutine exits as soon as the queue drains and is started
// again by the next submission, so an idle Queue holds no goroutine.
// Calling Sync from inside a task running on the same Queue deadlocks.
type Queue struct {
	mu      sync.Mutex
	tasks   []func()
	working bool
}

// Async submits fn and returns without waiting for it.
func (q *Queue) Async(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	if !q.working {
		q.working = true
		go q.drain()
	}
	q.mu.Unlock()
}

// Sync submits fn and blocks until it has run.  Every task submitted
// before Sync was called has completed by the time it returns.
func (q *Queue) Sync(fn func()) {
	done := make(chan struct{})
	q.Async(func() {
		defer close(done)
		fn()
	})
	<-done
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.working = false
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		fn()
	}
}
