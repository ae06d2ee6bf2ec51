package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aharper/filesearch/internal/index"
	"github.com/aharper/filesearch/internal/state"
	"github.com/aharper/filesearch/internal/walker"
)

// newTestIndexer returns an Indexer plus the Index/State stores it was
// constructed with. InitIndex may wipe and reopen the Index Store in
// place (a rebuild), so tests must fetch the current store via
// ix.Index() after calling InitIndex rather than reusing the idx
// returned here. The cleanup always closes whatever store is current at
// test end.
func newTestIndexer(t *testing.T, roots []string) (*Indexer, *index.Store, *state.Store) {
	t.Helper()
	idxDir := filepath.Join(t.TempDir(), "idx")
	idx, err := index.Open(idxDir)
	require.NoError(t, err)

	st, err := state.Open(filepath.Join(t.TempDir(), "anything.redb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ix, err := New(Dependencies{
		Index:   idx,
		State:   st,
		Roots:   roots,
		Version: "v1",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Index().Close() })
	return ix, idx, st
}

func TestIndexer_InitIndexBuildsAndMarksComplete(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "report.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "invoice.pdf"), []byte("x"), 0644))

	ix, _, st := newTestIndexer(t, []string{root})

	require.NoError(t, ix.InitIndex(context.Background()))

	indexed, err := st.IsIndexed()
	require.NoError(t, err)
	assert.True(t, indexed)

	n, err := ix.Index().NumDocs()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	hits, err := ix.Index().Search("report", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestIndexer_InitIndexSkipsWhenFreshAndCurrent(t *testing.T) {
	root := t.TempDir()
	ix, _, st := newTestIndexer(t, []string{root})
	require.NoError(t, ix.InitIndex(context.Background()))

	before, err := st.IndexedFiles()
	require.NoError(t, err)

	// A second call with nothing changed should be a fast no-op.
	require.NoError(t, ix.InitIndex(context.Background()))
	after, err := st.IndexedFiles()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIndexer_InitIndexRebuildsOnVersionChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0644))

	ix, _, st := newTestIndexer(t, []string{root})
	require.NoError(t, ix.InitIndex(context.Background()))

	n1, err := ix.Index().NumDocs()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n1)

	require.NoError(t, st.Set(state.KeyVersion, "v2"))
	require.NoError(t, ix.InitIndex(context.Background()))

	indexed, err := st.IsIndexed()
	require.NoError(t, err)
	assert.True(t, indexed)

	n2, err := ix.Index().NumDocs()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n2)
}

func TestIndexer_InitIndexWipesStaleDocumentsOnForcedRebuild(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep.txt")
	gone := filepath.Join(root, "gone.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(gone, []byte("x"), 0644))

	ix, _, st := newTestIndexer(t, []string{root})
	require.NoError(t, ix.InitIndex(context.Background()))

	hits, err := ix.Index().Search("gone", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, os.Remove(gone))
	require.NoError(t, st.Set(state.KeyRefresh, "true"))
	require.NoError(t, ix.InitIndex(context.Background()))

	hits, err = ix.Index().Search("gone", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "document for a file removed before a forced rebuild must not survive the rebuild")

	hits, err = ix.Index().Search("keep", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndexer_AddOneAndDeleteOne(t *testing.T) {
	root := t.TempDir()
	ix, _, _ := newTestIndexer(t, []string{root})
	require.NoError(t, ix.InitIndex(context.Background()))

	require.NoError(t, ix.AddOne(filepath.Join(root, "new.txt")))
	require.NoError(t, ix.CommitBatch())

	hits, err := ix.Index().Search("new", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, ix.DeleteOne(filepath.Join(root, "new.txt")))
	require.NoError(t, ix.CommitBatch())

	hits, err = ix.Index().Search("new", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexer_AddOneTwiceProducesTwoPostings(t *testing.T) {
	root := t.TempDir()
	ix, _, _ := newTestIndexer(t, []string{root})
	require.NoError(t, ix.InitIndex(context.Background()))

	path := filepath.Join(root, "dup.txt")
	require.NoError(t, ix.AddOne(path))
	require.NoError(t, ix.AddOne(path))
	require.NoError(t, ix.CommitBatch())

	hits, err := ix.Index().Search("dup", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2, "adding the same path twice without a delete must yield two postings")

	require.NoError(t, ix.DeleteOne(path))
	require.NoError(t, ix.CommitBatch())

	hits, err = ix.Index().Search("dup", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "deleting a path must remove every posting under it")
}

func TestIndexer_CommitBatchRepublishesIndexedFiles(t *testing.T) {
	root := t.TempDir()
	ix, _, st := newTestIndexer(t, []string{root})
	require.NoError(t, ix.InitIndex(context.Background()))

	require.NoError(t, ix.AddOne(filepath.Join(root, "x.txt")))
	require.NoError(t, ix.AddOne(filepath.Join(root, "y.txt")))
	require.NoError(t, ix.CommitBatch())

	files, err := st.IndexedFiles()
	require.NoError(t, err)
	assert.Equal(t, int64(2), files)
}

func TestIndexer_MonotonicCounterDuringBulkBuild(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "f"+string(rune('a'+i))), []byte("x"), 0644))
	}
	ix, _, st := newTestIndexer(t, []string{root})
	require.NoError(t, ix.InitIndex(context.Background()))

	files, err := st.IndexedFiles()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, files, int64(0))
}

func TestIndexer_ExclusionPrunesRootSubtree(t *testing.T) {
	root := t.TempDir()
	excludedDir := filepath.Join(root, "vendor")
	require.NoError(t, os.MkdirAll(excludedDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(excludedDir, "dep.go"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("x"), 0644))

	idxDir := filepath.Join(t.TempDir(), "idx")
	idx, err := index.Open(idxDir)
	require.NoError(t, err)
	st, err := state.Open(filepath.Join(t.TempDir(), "anything.redb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ix, err := New(Dependencies{
		Index:   idx,
		State:   st,
		Roots:   []string{root},
		Exclude: walker.NewExclusionSet([]string{excludedDir}),
		Version: "v1",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Index().Close() })
	require.NoError(t, ix.InitIndex(context.Background()))

	hits, err := ix.Index().Search("dep", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = ix.Index().Search("main", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndexer_RebuildTriggerStaleness(t *testing.T) {
	root := t.TempDir()
	ix, _, st := newTestIndexer(t, []string{root})
	require.NoError(t, ix.InitIndex(context.Background()))

	old := time.Now().Add(-20 * 24 * time.Hour)
	require.NoError(t, st.Set(state.KeyLastIndexed, strconv.FormatInt(old.Unix(), 10)))

	needs, err := st.NeedsRebuild("v1", time.Now())
	require.NoError(t, err)
	assert.True(t, needs)
}
