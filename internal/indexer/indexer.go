// Package indexer builds and maintains the Index Store: a bulk initial
// build over configured roots, plus the incremental add/delete/commit
// operations the Watcher drives afterward.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aharper/filesearch/internal/apperrors"
	"github.com/aharper/filesearch/internal/index"
	"github.com/aharper/filesearch/internal/state"
	"github.com/aharper/filesearch/internal/walker"
)

// progressEvery controls how often indexed_files is republished during a
// bulk build.
const progressEvery = 20_000

// Now is overridable in tests; defaults to time.Now.
var Now = time.Now

// Dependencies are the injected collaborators a Indexer needs. Explicit
// construction here, rather than package-level singletons, keeps the
// Indexer, Watcher, and Query Service independently testable.
type Dependencies struct {
	Index   *index.Store
	State   *state.Store
	Roots   []string
	Exclude *walker.ExclusionSet
	Workers int
	Version string
}

// Indexer owns the bulk build and the incremental operations exposed to
// the Watcher.
type Indexer struct {
	deps Dependencies
}

// New validates and wraps the given dependencies.
func New(deps Dependencies) (*Indexer, error) {
	if deps.Index == nil {
		return nil, fmt.Errorf("indexer: Index store is required")
	}
	if deps.State == nil {
		return nil, fmt.Errorf("indexer: State store is required")
	}
	if deps.Version == "" {
		deps.Version = "1"
	}
	return &Indexer{deps: deps}, nil
}

// InitIndex runs the bulk build procedure: check whether a rebuild is
// needed (indexed flag, version, staleness), and if so reset flags, walk
// every configured root, and commit in batches, publishing progress to
// the State Store as it goes.
func (ix *Indexer) InitIndex(ctx context.Context) error {
	s := ix.deps.State

	needs, err := s.NeedsRebuild(ix.deps.Version, Now())
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}
	if !needs {
		slog.Info("index_fresh_skip_build", slog.String("version", ix.deps.Version))
		return nil
	}

	slog.Info("index_rebuild_start", slog.Int("roots", len(ix.deps.Roots)))

	if err := s.MarkBuildStarted(ix.deps.Version); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}

	dir := ix.deps.Index.Dir()
	if err := ix.deps.Index.Close(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}
	fresh, err := index.Rebuild(dir)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}
	ix.deps.Index = fresh

	var total int64
	completedRoots := 0

	for _, root := range ix.deps.Roots {
		if err := ix.indexRoot(ctx, root, &total); err != nil {
			return err
		}
		if err := ix.commitWithRetry(); err != nil {
			return err
		}
		completedRoots++
		pct := 100.0 * float64(completedRoots) / float64(len(ix.deps.Roots))
		if err := s.SetIndexedProgress(pct); err != nil {
			slog.Warn("progress_publish_failed", slog.String("error", err.Error()))
		}
	}

	if err := s.SetIndexedFiles(total); err != nil {
		slog.Warn("progress_publish_failed", slog.String("error", err.Error()))
	}

	if err := s.MarkBuildComplete(Now()); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}

	slog.Info("index_rebuild_complete", slog.Int64("files", total))
	return nil
}

// indexRoot walks a single top-level root, adding every entry to the
// Index Store and publishing indexed_files every progressEvery entries.
func (ix *Indexer) indexRoot(ctx context.Context, root string, total *int64) error {
	for result := range walker.Walk(ctx, root, ix.deps.Exclude) {
		if result.Err != nil {
			slog.Warn("walk_entry_error", slog.String("error", result.Err.Error()))
			continue
		}

		if err := ix.addWithRetry(result.Entry.Path); err != nil {
			return err
		}

		*total++
		if *total%progressEvery == 0 {
			if err := ix.deps.State.SetIndexedFiles(*total); err != nil {
				slog.Warn("progress_publish_failed", slog.String("error", err.Error()))
			}
		}
	}
	return nil
}

// addWithRetry enqueues path; on ErrIndexBusy it commits and retries, up
// to DefaultRetryConfig's MaxRetries (three) times, per the writer
// memory-budget policy.
func (ix *Indexer) addWithRetry(path string) error {
	return apperrors.Retry(context.Background(), apperrors.DefaultRetryConfig(), func() error {
		return ix.deps.Index.AddOne(path)
	}, ix.deps.Index.Commit)
}

func (ix *Indexer) commitWithRetry() error {
	return apperrors.Retry(context.Background(), apperrors.DefaultRetryConfig(), ix.deps.Index.Commit, nil)
}

// AddOne derives the display name from path and enqueues it in the Index
// Store, exposed for the Watcher's create/modify handling.
func (ix *Indexer) AddOne(path string) error {
	return ix.addWithRetry(path)
}

// DeleteOne removes every document posted under path, exposed for the
// Watcher's remove handling.
func (ix *Indexer) DeleteOne(path string) error {
	return apperrors.Retry(context.Background(), apperrors.DefaultRetryConfig(), func() error {
		return ix.deps.Index.Delete(path)
	}, ix.deps.Index.Commit)
}

// Index returns the Index Store currently in use. InitIndex may replace
// it with a freshly rebuilt Store, so callers that hold their own
// reference to the original one (e.g. the CLI's Query Service wiring)
// must re-fetch it after calling InitIndex.
func (ix *Indexer) Index() *index.Store {
	return ix.deps.Index
}

// CommitBatch commits pending mutations and republishes indexed_files as
// num_docs(), exposed for the Watcher's own commit batching.
func (ix *Indexer) CommitBatch() error {
	if err := ix.deps.Index.Commit(); err != nil {
		return err
	}
	n, err := ix.deps.Index.NumDocs()
	if err != nil {
		return err
	}
	return ix.deps.State.SetIndexedFiles(int64(n))
}
