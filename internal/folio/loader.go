package folio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nordprojects/bitfolio/internal/task"
)

// SnippetExtensions are the folio files treated as shader snippets.
var SnippetExtensions = []string{".glsl", ".frag"}

// Snippet is the contents of one snippet file.
type Snippet struct {
	File File
	Path string
	Code string
}

// Loader follows a Watcher and delivers the current snippet, on display
// frame boundaries. Each folder update cancels the load still in flight.
type Loader struct {
	watcher *Watcher
	frames  task.FrameSource
	pinned  string
	delay   time.Duration
	wake    func()
	log     *slog.Logger

	// mu orders cancelling a load against its hand-off, so a cancelled
	// load never delivers.
	mu      sync.Mutex
	out     chan Snippet
	current *task.Task
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPinned always loads the named file instead of the newest snippet.
func WithPinned(name string) LoaderOption {
	return func(l *Loader) { l.pinned = name }
}

// WithReloadDelay waits d after an update before reading, so editors that
// save in several writes are read once.
func WithReloadDelay(d time.Duration) LoaderOption {
	return func(l *Loader) { l.delay = d }
}

// WithLoaderWake is called after a snippet is delivered.
func WithLoaderWake(fn func()) LoaderOption {
	return func(l *Loader) { l.wake = fn }
}

// WithLoaderLogger sets the logger load failures go to.
func WithLoaderLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

func NewLoader(w *Watcher, frames task.FrameSource, opts ...LoaderOption) *Loader {
	l := &Loader{
		watcher: w,
		frames:  frames,
		log:     slog.New(slog.DiscardHandler),
		out:     make(chan Snippet, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Snippets delivers loaded snippets. Only the latest undelivered snippet
// is kept.
func (l *Loader) Snippets() <-chan Snippet {
	return l.out
}

// Run loads a snippet for every listing the watcher publishes, until ctx
// is done.
func (l *Loader) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.current != nil {
			l.current.Cancel()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case files := <-l.watcher.Updates():
			l.load(ctx, files)
		}
	}
}

func (l *Loader) pick(files []File) (File, bool) {
	if l.pinned == "" {
		return Newest(files, SnippetExtensions...)
	}
	for _, f := range files {
		if f.Name == l.pinned {
			return f, true
		}
	}
	return File{}, false
}

func (l *Loader) load(ctx context.Context, files []File) {
	f, ok := l.pick(files)
	if !ok {
		l.log.Debug("no snippet in folio", "pinned", l.pinned)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil {
		l.current.Cancel()
	}

	path := l.watcher.Path(f)
	l.current = task.Start(func(t *task.Task) error {
		if err := t.Delay(l.delay); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("folio: read snippet %s: %w", f.Name, err)
		}
		if err := t.NextFrame(); err != nil {
			return err
		}

		if err := l.deliver(t, Snippet{File: f, Path: path, Code: string(data)}); err != nil {
			return err
		}
		if l.wake != nil {
			l.wake()
		}
		return nil
	},
		task.WithContext(ctx),
		task.WithFrames(l.frames),
		task.WithLogger(l.log),
	)
}

// deliver hands s over unless t was cancelled. An undelivered snippet
// still in the channel is replaced, so the reader always sees the latest.
func (l *Loader) deliver(t *task.Task, s Snippet) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := t.Yield(); err != nil {
		return err
	}
	select {
	case <-l.out:
	default:
	}
	l.out <- s
	return nil
}
