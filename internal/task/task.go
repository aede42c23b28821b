// Package task runs asynchronous flows that can be cancelled cooperatively.
//
// A flow only observes cancellation at its suspension points (Delay,
// NextFrame, Await, Receive, Timeout) and at explicit Yield calls. Every
// suspension point races its condition against cancellation and reports
// ErrCancelled whenever the task was cancelled by the time it resumes, so
// a flow never acts on a result that arrived after it was cancelled.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrCancelled is returned from suspension points of a cancelled task.
	// A flow returning it (or an error wrapping it) ends quietly.
	ErrCancelled = errors.New("task: cancelled")

	// ErrTimeout is returned by Timeout when the deadline wins.
	ErrTimeout = errors.New("task: timed out")

	errNoFrames = errors.New("task: no frame source configured")
)

// FrameSource provides display refresh notifications.
type FrameSource interface {
	NextFrame() <-chan struct{}
}

// Task is a handle to one running flow.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	parent context.Context
	frames FrameSource
	log    *slog.Logger

	mu        sync.Mutex
	finished  bool
	cancelled bool
}

// Option configures a Task.
type Option func(*Task)

// WithLogger sets where flow failures are reported.
func WithLogger(l *slog.Logger) Option {
	return func(t *Task) {
		if l != nil {
			t.log = l
		}
	}
}

// WithFrames enables NextFrame.
func WithFrames(f FrameSource) Option {
	return func(t *Task) { t.frames = f }
}

// WithContext derives the task's cancellation signal from ctx; cancelling
// ctx cancels the task.
func WithContext(ctx context.Context) Option {
	return func(t *Task) { t.parent = ctx }
}

// Start runs fn on a new goroutine and returns its handle immediately.
// An fn error other than ErrCancelled is logged at error level.
func Start(fn func(*Task) error, opts ...Option) *Task {
	t := &Task{
		done:   make(chan struct{}),
		parent: context.Background(),
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.ctx, t.cancel = context.WithCancel(t.parent)

	go t.run(fn)
	return t
}

func (t *Task) run(fn func(*Task) error) {
	err := fn(t)
	switch {
	case err == nil:
	case errors.Is(err, ErrCancelled):
		t.log.Debug("task cancelled")
	default:
		t.log.Error("task failed", "err", err)
	}

	t.mu.Lock()
	t.finished = true
	t.mu.Unlock()

	t.cancel()
	close(t.done)
}

// Cancel asks the flow to stop at its next suspension point. It does
// nothing once the flow has finished.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return
	}
	t.cancelled = true
	t.cancel()
}

// Cancelled reports whether the task was cancelled before it finished,
// either through Cancel or through its parent context.
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled || (!t.finished && t.ctx.Err() != nil)
}

// Finished reports whether the flow has returned.
func (t *Task) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// Done is closed once the flow has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Context is cancelled together with the task, for handing to blocking
// calls that accept a context.
func (t *Task) Context() context.Context {
	return t.ctx
}

// Yield is a synchronous check point: it returns ErrCancelled if the task
// has been cancelled.
func (t *Task) Yield() error {
	if t.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// Delay suspends the flow for d.
func (t *Task) Delay(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-t.ctx.Done():
	}
	return t.Yield()
}

// NextFrame suspends the flow until the next display refresh.
func (t *Task) NextFrame() error {
	if t.frames == nil {
		return errNoFrames
	}
	select {
	case <-t.frames.NextFrame():
	case <-t.ctx.Done():
	}
	return t.Yield()
}

// Await suspends the flow until ch is closed or receives.
func (t *Task) Await(ch <-chan struct{}) error {
	select {
	case <-ch:
	case <-t.ctx.Done():
	}
	return t.Yield()
}

// Timeout is Await with a deadline: it returns an error wrapping
// ErrTimeout if ch has not fired within d.
func (t *Task) Timeout(d time.Duration, ch <-chan struct{}) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
		if err := t.Yield(); err != nil {
			return err
		}
		return fmt.Errorf("%w after %v", ErrTimeout, d)
	case <-t.ctx.Done():
	}
	return t.Yield()
}

// Receive suspends the flow until a value arrives on ch and returns it.
// A value that arrives after cancellation is dropped.
func Receive[T any](t *Task, ch <-chan T) (T, error) {
	var v T
	select {
	case v = <-ch:
	case <-t.ctx.Done():
	}
	if err := t.Yield(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
