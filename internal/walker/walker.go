// Package walker produces the lazy sequence of directory entries the
// Indexer and Watcher build the index from.
package walker

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Entry is a single file or directory name discovered under a root.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
}

// Result pairs an Entry with a per-entry error. Exactly one of Entry/Err
// is meaningful: a failure to stat or read a specific path is yielded as
// a Result with Err set, never as a fatal abort of the whole walk.
type Result struct {
	Entry Entry
	Err   error
}

// Walk streams every entry under root, skipping subtrees whose absolute
// path begins with an excluded prefix. Hidden entries are not skipped.
// Symbolic links are included by name only; the walker does not descend
// through them, avoiding cycles without explicit cycle detection.
func Walk(ctx context.Context, root string, excl *ExclusionSet) <-chan Result {
	out := make(chan Result, 256)

	go func() {
		defer close(out)

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				return sendResult(ctx, out, Result{Err: err})
			}

			if path == root {
				return nil
			}

			if d.IsDir() && excl.Excludes(path) {
				return filepath.SkipDir
			}

			entry := Entry{
				Name:  d.Name(),
				Path:  path,
				IsDir: d.IsDir(),
			}

			if d.Type()&fs.ModeSymlink != 0 {
				// Followed for name only: yield it, but WalkDir never
				// descends through a symlink on its own, so no further
				// action is needed to avoid cycles.
				return sendResult(ctx, out, Result{Entry: entry})
			}

			return sendResult(ctx, out, Result{Entry: entry})
		})
	}()

	return out
}

func sendResult(ctx context.Context, out chan<- Result, r Result) error {
	select {
	case out <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WalkRoots fans out one goroutine per top-level root, bounded by workers
// (defaulting to runtime.NumCPU()), and merges their entries onto a single
// channel. Each root is still walked in full traversal order internally;
// only the set of roots is parallelized. The bulk build does not use it:
// the Indexer walks its roots one after another with Walk.
func WalkRoots(ctx context.Context, roots []string, excl *ExclusionSet, workers int) <-chan Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make(chan Result, 256)
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	g, gctx := errgroup.WithContext(ctx)

	for _, root := range roots {
		root := root
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			for r := range Walk(gctx, root, excl) {
				select {
				case out <- r:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	go func() {
		_ = g.Wait()
	}()

	return out
}
