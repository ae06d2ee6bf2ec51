package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aharper/filesearch/internal/apperrors"
	"github.com/aharper/filesearch/internal/indexer"
	"github.com/aharper/filesearch/internal/state"
	"github.com/aharper/filesearch/internal/walker"
)

// Dependencies are the injected collaborators a Watcher needs.
type Dependencies struct {
	Indexer *indexer.Indexer
	State   *state.Store
	Roots   []string
	Exclude *walker.ExclusionSet
	Options Options
}

// Watcher subscribes to filesystem changes recursively under the
// configured roots and translates them into Index Store mutations,
// using fsnotify when available and falling back to polling.
type Watcher struct {
	deps Dependencies
	opts Options

	fsWatcher    *fsnotify.Watcher
	pollWatchers []*PollingWatcher
	useFsnotify  bool

	debouncer *Debouncer
	errors    chan error
	stopCh    chan struct{}

	mu        sync.Mutex
	stopped   bool
	mutations int
}

// New validates dependencies and picks fsnotify or polling up front.
func New(deps Dependencies) (*Watcher, error) {
	if deps.Indexer == nil {
		return nil, fmt.Errorf("watcher: Indexer is required")
	}
	if deps.State == nil {
		return nil, fmt.Errorf("watcher: State store is required")
	}
	if len(deps.Roots) == 0 {
		return nil, fmt.Errorf("watcher: at least one root is required")
	}

	opts := deps.Options.WithDefaults()
	w := &Watcher{
		deps:   deps,
		opts:   opts,
		errors: make(chan error, opts.EventBufferSize),
		stopCh: make(chan struct{}),
	}

	if fsw, err := fsnotify.NewWatcher(); err == nil {
		w.fsWatcher = fsw
		w.useFsnotify = true
	} else {
		w.useFsnotify = false
	}

	return w, nil
}

// Start blocks until the State Store reports the initial build is
// complete, then begins watching. It returns once the underlying
// watcher stops or the context is cancelled; a failure to start the
// underlying watcher is returned immediately (the Watcher thread exits,
// the rest of the system continues without live updates).
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.awaitIndexed(ctx); err != nil {
		return err
	}

	w.debouncer = NewDebouncer(w.opts.DebounceWindow)
	go w.applyDebounced(ctx)

	if w.useFsnotify {
		return w.startFsnotify(ctx)
	}
	return w.startPolling(ctx)
}

// awaitIndexed polls the State Store every RendezvousPoll until
// indexed=="true", guaranteeing the bulk build and Watcher mutations
// never race.
func (w *Watcher) awaitIndexed(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.RendezvousPoll)
	defer ticker.Stop()

	for {
		indexed, err := w.deps.State.IsIndexed()
		if err == nil && indexed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Watcher) startFsnotify(ctx context.Context) error {
	for _, root := range w.deps.Roots {
		if err := w.addRecursive(root); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeWatcherFailed, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.deps.Exclude.Excludes(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// handleFsnotifyEvent resolves an fsnotify event into a FileEvent and
// hands it to the debouncer. Creates are added outright; writes and
// renames are resolved to add/delete by checking whether the path
// still exists; removes are always deletes. Chmod and any other kind
// are ignored.
func (w *Watcher) handleFsnotifyEvent(event fsnotify.Event) {
	if w.deps.Exclude.Excludes(event.Name) {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		info, statErr := os.Stat(event.Name)
		isDir := statErr == nil && info.IsDir()
		if isDir {
			_ = w.fsWatcher.Add(event.Name)
		}
		w.debouncer.Add(FileEvent{Path: event.Name, Operation: OpCreate, IsDir: isDir, Timestamp: time.Now()})

	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Rename != 0:
		w.debouncer.Add(FileEvent{Path: event.Name, Operation: w.resolveExistingOp(event.Name), Timestamp: time.Now()})

	case event.Op&fsnotify.Remove != 0:
		w.debouncer.Add(FileEvent{Path: event.Name, Operation: OpDelete, Timestamp: time.Now()})
	}
}

// resolveExistingOp decides add vs delete for a write/rename event by
// checking whether the path still exists on disk.
func (w *Watcher) resolveExistingOp(path string) Operation {
	if _, err := os.Stat(path); err == nil {
		return OpModify
	}
	return OpDelete
}

func (w *Watcher) startPolling(ctx context.Context) error {
	w.pollWatchers = make([]*PollingWatcher, 0, len(w.deps.Roots))
	results := make(chan error, len(w.deps.Roots))

	for _, root := range w.deps.Roots {
		pw := NewPollingWatcher(w.opts.PollInterval)
		w.pollWatchers = append(w.pollWatchers, pw)
		go w.forwardPolled(ctx, pw)
		go func(root string) { results <- pw.Start(ctx, root) }(root)
	}

	var firstErr error
	for range w.pollWatchers {
		if err := <-results; err != nil && firstErr == nil && err != context.Canceled {
			firstErr = err
		}
	}
	if firstErr != nil {
		return apperrors.Wrap(apperrors.ErrCodeWatcherFailed, firstErr)
	}
	return nil
}

func (w *Watcher) forwardPolled(ctx context.Context, pw *PollingWatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-pw.Events():
			if !ok {
				return
			}
			if w.deps.Exclude.Excludes(event.Path) {
				continue
			}
			w.debouncer.Add(event)
		case err, ok := <-pw.Errors():
			if !ok {
				return
			}
			w.emitError(err)
		}
	}
}

// applyDebounced drains coalesced batches and applies each event to
// the Indexer, committing every CommitEvery mutations.
func (w *Watcher) applyDebounced(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.applyBatch(events)
		}
	}
}

func (w *Watcher) applyBatch(events []FileEvent) {
	for _, ev := range events {
		var err error
		if ev.Operation == OpDelete {
			err = w.deps.Indexer.DeleteOne(ev.Path)
		} else {
			err = w.deps.Indexer.AddOne(ev.Path)
		}
		if err != nil {
			slog.Warn("watcher_mutation_failed",
				slog.String("path", ev.Path),
				slog.String("op", ev.Operation.String()),
				slog.String("error", err.Error()))
			continue
		}

		w.mu.Lock()
		w.mutations++
		shouldCommit := w.mutations >= w.opts.CommitEvery
		if shouldCommit {
			w.mutations = 0
		}
		w.mu.Unlock()

		if shouldCommit {
			if err := w.deps.Indexer.CommitBatch(); err != nil {
				slog.Warn("watcher_commit_failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
		slog.Warn("watcher_error_channel_full", slog.String("error", err.Error()))
	}
}

// Errors returns the channel of non-fatal watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. Safe to call multiple
// times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	if w.debouncer != nil {
		w.debouncer.Stop()
	}
	if w.useFsnotify && w.fsWatcher != nil {
		_ = w.fsWatcher.Close()
	}
	for _, pw := range w.pollWatchers {
		_ = pw.Stop()
	}
	close(w.errors)
	return nil
}
