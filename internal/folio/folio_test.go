package folio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("white = 1.0;"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func names(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestNewWatcherCreatesFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "folio")
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, w.Dir())
	assert.Empty(t, w.Files())
}

func TestRefreshSortsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, dir, "old.glsl", base)
	writeFile(t, dir, "new.frag", base.Add(time.Hour))
	writeFile(t, dir, "mid.png", base.Add(time.Minute))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	w, err := NewWatcher(dir)
	require.NoError(t, err)
	require.NoError(t, w.Refresh())

	files := w.Files()
	assert.Equal(t, []string{"new.frag", "mid.png", "old.glsl"}, names(files))
	assert.True(t, files[0].ModTime.Equal(base.Add(time.Hour)))
	assert.True(t, files[0].LastEventTime.Equal(files[0].ModTime))

	select {
	case got := <-w.Updates():
		assert.Equal(t, names(files), names(got))
	default:
		t.Fatal("no update published")
	}
}

func TestEventTimeWinsOverModTime(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, dir, "a.glsl", base)
	writeFile(t, dir, "b.glsl", base.Add(time.Hour))

	w, err := NewWatcher(dir, WithDebounce(time.Hour))
	require.NoError(t, err)

	w.record("a.glsl", base.Add(2*time.Hour))
	require.NoError(t, w.Refresh())

	files := w.Files()
	assert.Equal(t, []string{"a.glsl", "b.glsl"}, names(files))
	assert.True(t, files[0].LastEventTime.Equal(base.Add(2*time.Hour)))
	assert.True(t, files[0].ModTime.Equal(base))
}

func TestUpdatesKeepsLatest(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)

	require.NoError(t, w.Refresh())
	writeFile(t, dir, "x.glsl", time.Now())
	require.NoError(t, w.Refresh())

	got := <-w.Updates()
	assert.Equal(t, []string{"x.glsl"}, names(got))
	select {
	case <-w.Updates():
		t.Fatal("stale listing delivered")
	default:
	}
}

func TestRecordDebounces(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	now := time.Now()
	w.record("a.glsl", now)
	w.record("b.glsl", now)
	w.record("a.glsl", now.Add(time.Second))

	select {
	case <-w.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh after events")
	}
	w.mu.Lock()
	assert.False(t, w.needsUpdate)
	assert.True(t, w.events["a.glsl"].Equal(now.Add(time.Second)))
	w.mu.Unlock()
}

func TestRunPublishesChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, WithDebounce(5*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case first := <-w.Updates():
		assert.Empty(t, first)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial listing")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "live.glsl"), []byte("red = 1.0;"), 0o644))

	deadline := time.After(5 * time.Second)
	for found := false; !found; {
		select {
		case files := <-w.Updates():
			found = len(files) == 1 && files[0].Name == "live.glsl"
		case <-deadline:
			t.Fatal("change not published")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestURLForFile(t *testing.T) {
	assert.Equal(t, "folio:///sky.glsl", URLForFile(File{Name: "sky.glsl"}))
	assert.Equal(t, "folio:///my%20sky%231.glsl", URLForFile(File{Name: "my sky#1.glsl"}))
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)

	path, err := w.Resolve(URLForFile(File{Name: "my sky#1.glsl"}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "my sky#1.glsl"), path)

	for _, raw := range []string{
		"file:///etc/passwd",
		"folio:///../secret",
		"folio:///",
		"folio:///%zz",
	} {
		_, err := w.Resolve(raw)
		assert.Error(t, err, raw)
	}
}

func TestNewest(t *testing.T) {
	files := []File{{Name: "shot.png"}, {Name: "Wave.FRAG"}, {Name: "old.glsl"}}

	f, ok := Newest(files, ".glsl", ".frag")
	require.True(t, ok)
	assert.Equal(t, "Wave.FRAG", f.Name)

	_, ok = Newest(files, ".wgsl")
	assert.False(t, ok)
}
