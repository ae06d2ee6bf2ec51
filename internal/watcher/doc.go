// Package watcher observes the configured roots for filesystem changes
// and translates them into incremental Index Store mutations.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: polling for environments where fsnotify fails (network
//     mounts, some container filesystems)
//
// Events are debounced to coalesce rapid changes from editors and bulk
// filesystem operations, and filtered against the same path-exclusion
// rules the bulk walker uses. The Watcher will not touch the index
// until the State Store reports an initial build has completed.
//
// Rename events are resolved by checking whether the path still exists
// on disk: if it does, the path is (re-)added; if not, it is deleted.
// Platforms that emit paired (from, to) rename events can race this
// check against the filesystem. On Linux inotify this path is
// reliable, on macOS FSEvents less so.
//
// Usage:
//
//	w, err := watcher.New(watcher.Dependencies{
//	    Indexer: ix,
//	    State:   st,
//	    Roots:   roots,
//	    Exclude: excl,
//	})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
package watcher
