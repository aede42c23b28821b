package task

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wait(t *testing.T, tk *Task) {
	t.Helper()
	select {
	case <-tk.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

type chanFrames chan struct{}

func (c chanFrames) NextFrame() <-chan struct{} { return c }

func TestRunsToCompletion(t *testing.T) {
	steps := 0
	tk := Start(func(tk *Task) error {
		if err := tk.Delay(time.Millisecond); err != nil {
			return err
		}
		steps++
		return tk.Yield()
	})
	wait(t, tk)

	assert.Equal(t, 1, steps)
	assert.True(t, tk.Finished())
	assert.False(t, tk.Cancelled())
}

func TestCancelDuringDelay(t *testing.T) {
	started := make(chan struct{})
	var got error
	after := false

	tk := Start(func(tk *Task) error {
		close(started)
		got = tk.Delay(time.Hour)
		if got != nil {
			return got
		}
		after = true
		return nil
	})
	<-started
	tk.Cancel()
	wait(t, tk)

	assert.ErrorIs(t, got, ErrCancelled)
	assert.False(t, after)
	assert.True(t, tk.Cancelled())
}

func TestValueAfterCancelIsDropped(t *testing.T) {
	ch := make(chan string, 1)
	ch <- "late"

	gate := make(chan struct{})
	var got string
	var err error
	tk := Start(func(tk *Task) error {
		<-gate
		got, err = Receive(tk, ch)
		return err
	})
	tk.Cancel()
	close(gate)
	wait(t, tk)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, got)
}

func TestReceive(t *testing.T) {
	ch := make(chan int)
	var got int
	tk := Start(func(tk *Task) error {
		v, err := Receive(tk, ch)
		got = v
		return err
	})
	ch <- 42
	wait(t, tk)
	assert.Equal(t, 42, got)
}

func TestCancelAfterFinishIsNoop(t *testing.T) {
	tk := Start(func(*Task) error { return nil })
	wait(t, tk)

	tk.Cancel()
	assert.False(t, tk.Cancelled())
	assert.True(t, tk.Finished())
}

func TestNextFrame(t *testing.T) {
	frames := make(chanFrames)
	reached := make(chan struct{})
	tk := Start(func(tk *Task) error {
		if err := tk.NextFrame(); err != nil {
			return err
		}
		close(reached)
		return nil
	}, WithFrames(frames))

	close(frames)
	wait(t, tk)
	select {
	case <-reached:
	default:
		t.Fatal("flow did not resume after frame")
	}
}

func TestNextFrameWithoutSource(t *testing.T) {
	var err error
	tk := Start(func(tk *Task) error {
		err = tk.NextFrame()
		return nil
	})
	wait(t, tk)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCancelled)
}

func TestTimeout(t *testing.T) {
	var err error
	tk := Start(func(tk *Task) error {
		err = tk.Timeout(5*time.Millisecond, make(chan struct{}))
		return nil
	})
	wait(t, tk)
	assert.ErrorIs(t, err, ErrTimeout)

	done := make(chan struct{})
	close(done)
	tk = Start(func(tk *Task) error {
		err = tk.Timeout(time.Hour, done)
		return nil
	})
	wait(t, tk)
	assert.NoError(t, err)
}

func TestAwait(t *testing.T) {
	ready := make(chan struct{})
	var err error
	tk := Start(func(tk *Task) error {
		err = tk.Await(ready)
		return err
	})
	close(ready)
	wait(t, tk)
	assert.NoError(t, err)
}

func TestParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var err error
	tk := Start(func(tk *Task) error {
		close(started)
		err = tk.Await(make(chan struct{}))
		return err
	}, WithContext(ctx))

	<-started
	cancel()
	wait(t, tk)
	assert.ErrorIs(t, err, ErrCancelled)
	require.Error(t, tk.Context().Err())
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tk := Start(func(*Task) error { return errors.New("disk on fire") }, WithLogger(log))
	wait(t, tk)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "disk on fire")

	buf.Reset()
	tk = Start(func(tk *Task) error {
		tk.Cancel()
		return tk.Yield()
	}, WithLogger(log))
	wait(t, tk)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.NotContains(t, buf.String(), "level=ERROR")
}
