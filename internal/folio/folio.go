// Package folio keeps a live listing of the folio folder, newest first.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Scheme is the URL scheme folio files are addressed by.
const Scheme = "folio"

// DefaultDebounce is how long a burst of events is collected before the
// folder is listed again.
const DefaultDebounce = 50 * time.Millisecond

// File is one entry of the folio folder.
type File struct {
	Name    string
	ModTime time.Time
	// LastEventTime is when the watcher last saw the file change, or its
	// ModTime if it has not changed since the watcher started.
	LastEventTime time.Time
}

// URLForFile returns the folio URL of f.
func URLForFile(f File) string {
	return Scheme + ":///" + url.PathEscape(f.Name)
}

// Newest returns the first file in files with one of the given extensions.
// Extensions include the dot and are matched case-insensitively.
func Newest(files []File, exts ...string) (File, bool) {
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name))
		for _, want := range exts {
			if ext == strings.ToLower(want) {
				return f, true
			}
		}
	}
	return File{}, false
}

// Watcher lists a folder and re-lists it whenever something in it changes.
type Watcher struct {
	dir      string
	debounce time.Duration
	log      *slog.Logger

	mu          sync.Mutex
	files       []File
	events      map[string]time.Time
	needsUpdate bool
	timer       *time.Timer

	refreshMu sync.Mutex
	updates   chan []File
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger watch errors are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWatcher creates dir if needed and returns a watcher for it. Nothing is
// listed until Run or Refresh.
func NewWatcher(dir string, opts ...Option) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("folio: create folder: %w", err)
	}
	w := &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		log:      slog.New(slog.DiscardHandler),
		events:   make(map[string]time.Time),
		updates:  make(chan []File, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir is the watched folder.
func (w *Watcher) Dir() string { return w.dir }

// Path returns the file system path of f.
func (w *Watcher) Path(f File) string {
	return filepath.Join(w.dir, f.Name)
}

// Resolve maps a folio URL back to a path inside the folder.
func (w *Watcher) Resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("folio: %w", err)
	}
	if u.Scheme != Scheme {
		return "", fmt.Errorf("folio: unexpected scheme %q", u.Scheme)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("folio: %q is outside the folder", u.Path)
	}
	return filepath.Join(w.dir, name), nil
}

// Files returns the most recent listing.
func (w *Watcher) Files() []File {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.files)
}

// Updates delivers every new listing. Only the latest undelivered listing
// is kept.
func (w *Watcher) Updates() <-chan []File {
	return w.updates
}

// Run lists the folder once and then watches it until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("folio: watch: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("folio: watch %s: %w", w.dir, err)
	}
	if err := w.Refresh(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.log.Debug("folio event", "name", ev.Name, "op", ev.Op.String())
			w.record(filepath.Base(ev.Name), time.Now())
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("folio watch error", "err", err)
		}
	}
}

// record notes an event for name and schedules a refresh unless one is
// already pending.
func (w *Watcher) record(name string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.events[name] = at
	if w.needsUpdate {
		return
	}
	w.needsUpdate = true
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.Refresh(); err != nil {
			w.log.Error("folio refresh failed", "err", err)
		}
	})
}

// Refresh lists the folder now and publishes the result. Concurrent calls
// run one at a time.
func (w *Watcher) Refresh() error {
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	w.mu.Lock()
	w.needsUpdate = false
	events := maps.Clone(w.events)
	w.mu.Unlock()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("folio: list: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("folio: stat %s: %w", e.Name(), err)
		}
		f := File{Name: e.Name(), ModTime: info.ModTime(), LastEventTime: info.ModTime()}
		if t, ok := events[e.Name()]; ok {
			f.LastEventTime = t
		}
		files = append(files, f)
	}
	slices.SortStableFunc(files, func(a, b File) int {
		return b.LastEventTime.Compare(a.LastEventTime)
	})

	w.mu.Lock()
	w.files = files
	w.mu.Unlock()

	select {
	case <-w.updates:
	default:
	}
	w.updates <- slices.Clone(files)

	w.log.Debug("folio listed", "files", len(files))
	return nil
}
