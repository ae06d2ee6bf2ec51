package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aharper/filesearch/internal/index"
	"github.com/aharper/filesearch/internal/indexer"
	"github.com/aharper/filesearch/internal/state"
)

// Error propagation tests: non-fatal per-event errors are logged and
// skipped while the loop continues; a failure to start the underlying
// watcher is surfaced and the watcher thread exits.

func TestWatcher_Errors_ChannelIsOpen(t *testing.T) {
	root := t.TempDir()
	w, _, _ := newTestWatcher(t, root, nil)
	assert.NotNil(t, w.Errors())
}

func TestWatcher_MissingRoot_DoesNotPanic(t *testing.T) {
	parent := t.TempDir()
	missing := filepath.Join(parent, "gone")
	require.NoError(t, os.MkdirAll(missing, 0755))

	idx, err := index.Open(filepath.Join(t.TempDir(), "idx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	st, err := state.Open(filepath.Join(t.TempDir(), "anything.redb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ix, err := indexer.New(indexer.Dependencies{Index: idx, State: st, Roots: []string{missing}, Version: "v1"})
	require.NoError(t, err)
	require.NoError(t, ix.InitIndex(context.Background()))

	// Removing the root after the bulk build mirrors the watched
	// directory disappearing out from under a live watcher.
	require.NoError(t, os.RemoveAll(missing))

	w, err := New(Dependencies{
		Indexer: ix,
		State:   st,
		Roots:   []string{missing},
		Options: Options{RendezvousPoll: 10 * time.Millisecond},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = w.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not return after context timeout")
	}
}

func TestPollingWatcher_Start_InvalidPath_ReturnsError(t *testing.T) {
	w := NewPollingWatcher(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := w.Start(ctx, "/nonexistent/path")
	assert.Error(t, err)
}

func TestDebouncer_Stop_ClosesOutput_ErrorPropagation(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	d.Stop()

	select {
	case _, ok := <-d.Output():
		assert.False(t, ok)
	case <-time.After(100 * time.Millisecond):
	}
}
