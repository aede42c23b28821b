// Package frame paces work to display refreshes.
//
// A Queue collects callbacks that want to run on the next frame. The owner
// of the display calls Tick once per refresh from the render thread;
// everything else may request or cancel frames from any goroutine.
package frame

import (
	"sync"
	"time"
)

// ID identifies a requested frame callback. The zero ID is never issued.
type ID uint64

type request struct {
	id ID
	fn func(now time.Duration)
}

// Queue is a display frame scheduler.
type Queue struct {
	mu      sync.Mutex
	epoch   time.Time
	nextID  ID
	pending []request
	ticking []request
	wake    func()
}

// Option configures a Queue.
type Option func(*Queue)

// WithWake registers a function called whenever a frame is requested, so
// an idle render loop blocked on window events can be woken up.
func WithWake(fn func()) Option {
	return func(q *Queue) { q.wake = fn }
}

// NewQueue returns a queue whose timestamps count from epoch.
func NewQueue(epoch time.Time, opts ...Option) *Queue {
	q := &Queue{epoch: epoch}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// RequestFrame schedules fn to run on the next Tick.
func (q *Queue) RequestFrame(fn func(now time.Duration)) ID {
	q.mu.Lock()
	q.nextID++
	id := q.nextID
	q.pending = append(q.pending, request{id: id, fn: fn})
	wake := q.wake
	q.mu.Unlock()

	if wake != nil {
		wake()
	}
	return id
}

// CancelFrame drops a pending callback. Unknown or already run IDs are
// ignored.
func (q *Queue) CancelFrame(id ID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, r := range q.pending {
		if r.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
	for i := range q.ticking {
		if q.ticking[i].id == id {
			q.ticking[i].fn = nil
			return
		}
	}
}

// NextFrame returns a channel closed on the next Tick.
func (q *Queue) NextFrame() <-chan struct{} {
	ch := make(chan struct{})
	q.RequestFrame(func(time.Duration) { close(ch) })
	return ch
}

// Pending reports whether any callback is waiting for a frame.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) > 0
}

// Tick runs, in request order, every callback requested before the call.
// Callbacks requested while ticking wait for the next Tick; callbacks
// cancelled while ticking are skipped. It returns the number run.
func (q *Queue) Tick(now time.Time) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.ticking = batch
	q.mu.Unlock()

	ts := now.Sub(q.epoch)
	run := 0
	for i := range batch {
		q.mu.Lock()
		fn := batch[i].fn
		q.mu.Unlock()
		if fn == nil {
			continue
		}
		fn(ts)
		run++
	}

	q.mu.Lock()
	q.ticking = nil
	q.mu.Unlock()
	return run
}
