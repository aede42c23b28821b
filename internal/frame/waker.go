package frame

import "sync"

// Waker forwards wake-ups to a window system until it is closed. Wake may
// be called from any goroutine; once Close returns, fn is never called
// again, so the window system can be torn down.
type Waker struct {
	mu     sync.RWMutex
	fn     func()
	closed bool
}

func NewWaker(fn func()) *Waker {
	return &Waker{fn: fn}
}

// Wake calls fn unless the waker is closed.
func (w *Waker) Wake() {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.closed {
		w.fn()
	}
}

// Close waits for running wake-ups and disables further ones.
func (w *Waker) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}
