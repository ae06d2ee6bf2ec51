// Package index implements the Index Store: a bleve-backed inverted index
// over file names, with its own "mixed" tokenizer dispatching to a Han
// segmenter or a camelCase-aware Latin splitter. The package owns one
// exclusive writer and a reader factory that becomes visible to new
// queries shortly after each commit.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/aharper/filesearch/internal/apperrors"
)

// maxPathMatches bounds how many documents a single Delete will remove for
// one path in one call. Duplicate postings for the same path are expected
// to be few (repeated add_one calls without an intervening delete);
// anything beyond this is treated as a data anomaly rather than expanded.
const maxPathMatches = 10_000

const lockFileName = ".filesearch.lock"

// Hit is a single search result: the entry's identity.
type Hit struct {
	Path string
}

// Store is the Index Store. add/delete/commit are serialized behind mu;
// search may run concurrently with them since bleve readers are
// independent of the in-flight writer batch.
type Store struct {
	dir   string
	index bleve.Index
	lock  *flock.Flock

	mu     sync.Mutex
	batch  *bleve.Batch
	closed bool
}

// Open opens the index directory, creating it with the fixed schema if
// absent, and acquires the process-exclusive writer lock. Returns
// ErrIndexCorrupt if the directory exists but cannot be opened as a valid
// bleve index.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}
	if !locked {
		return nil, apperrors.New(apperrors.ErrCodeStoreUnavailable,
			"index directory is locked by another process", nil).WithDetail("dir", dir)
	}

	idx, err := openOrCreate(dir)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &Store{
		dir:   dir,
		index: idx,
		lock:  lock,
		batch: idx.NewBatch(),
	}, nil
}

func openOrCreate(dir string) (bleve.Index, error) {
	metaPath := filepath.Join(dir, "index_meta.json")
	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		mapping, mapErr := buildIndexMapping()
		if mapErr != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, mapErr)
		}
		idx, err := bleve.New(dir, mapping)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
		}
		return idx, nil
	}

	idx, err := bleve.Open(dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}
	return idx, nil
}

// Rebuild deletes the index directory entirely and reopens it with a fresh
// schema, per the rebuild procedure: reset flags, delete directory,
// reopen, bulk build. The caller must have already closed any prior Store.
func Rebuild(dir string) (*Store, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}
	return Open(dir)
}

// Close commits any pending batch, releases the writer lock, and closes
// the underlying index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if s.batch != nil && s.batch.Size() > 0 {
		if err := s.index.Batch(s.batch); err != nil {
			firstErr = apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
		}
	}
	if err := s.index.Close(); err != nil && firstErr == nil {
		firstErr = apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}
	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Add enqueues a document in the current writer batch; it is not visible
// to search until the next Commit. name is the display name derived by
// the caller (e.g. via add_one's path-splitting rule). Each call gets its
// own synthetic document ID, so adding the same path twice without an
// intervening Delete produces two postings, not an upsert. When the
// pending batch is already at its budget, Add reports ErrIndexBusy
// without enqueuing anything, so a Commit followed by a retry adds the
// document exactly once.
func (s *Store) Add(name, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperrors.New(apperrors.ErrCodeStoreUnavailable, "index store closed", nil)
	}

	if err := s.maybeBudgetExceeded(); err != nil {
		return err
	}
	doc := document{Name: name, Path: path}
	if err := s.batch.Index(uuid.NewString(), doc); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}
	return nil
}

// AddOne derives the display name from path per the splitting rule and
// enqueues it, matching the Indexer's add_one operation.
func (s *Store) AddOne(path string) error {
	return s.Add(displayNameFromPath(path), path)
}

// Delete enqueues tombstones for every committed document whose path field
// exactly matches path. Since documents no longer carry path as their ID,
// removing a path means finding every document currently posted under it.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperrors.New(apperrors.ErrCodeStoreUnavailable, "index store closed", nil)
	}

	ids, err := s.docIDsForPath(path)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.batch.Delete(id)
	}
	return s.maybeBudgetExceeded()
}

// docIDsForPath returns the internal document IDs of every committed
// document posted under path, via an exact term match on the keyword-
// analyzed path field.
func (s *Store) docIDsForPath(path string) ([]string, error) {
	term := bleve.NewTermQuery(path)
	term.SetField(fieldPath)

	req := bleve.NewSearchRequest(term)
	req.Size = maxPathMatches
	req.Fields = nil

	result, err := s.index.Search(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// maybeBudgetExceeded reports ErrIndexBusy once the pending batch grows
// past a size that risks exhausting the writer's memory budget. Callers
// are expected to Commit and retry, per apperrors.Retry's policy.
func (s *Store) maybeBudgetExceeded() error {
	const maxPendingOps = 50_000
	if s.batch.Size() >= maxPendingOps {
		return apperrors.ErrIndexBusy
	}
	return nil
}

// Commit flushes and publishes all pending mutations atomically, then
// starts a fresh batch. A failed commit is surfaced as ErrIndexCorrupt:
// policy is to treat this as fatal and rebuild on next start.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperrors.New(apperrors.ErrCodeStoreUnavailable, "index store closed", nil)
	}
	if s.batch.Size() == 0 {
		return nil
	}

	if err := s.index.Batch(s.batch); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}
	s.batch = s.index.NewBatch()
	return nil
}

// Search parses query against the name field using the same "mixed"
// tokenizer as index time, and returns up to limit top-ranked hits,
// BM25-scored by bleve, ties broken by internal document order.
func (s *Store) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 100
	}

	match := bleve.NewMatchQuery(query)
	match.SetField(fieldName)

	req := bleve.NewSearchRequest(match)
	req.Size = limit
	req.Fields = []string{fieldPath}

	result, err := s.index.Search(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		path, _ := hit.Fields[fieldPath].(string)
		hits = append(hits, Hit{Path: path})
	}
	return hits, nil
}

// NumDocs returns the live document count.
func (s *Store) NumDocs() (uint64, error) {
	n, err := s.index.DocCount()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}
	return n, nil
}

// ListAll returns every indexed path, for diagnostics.
func (s *Store) ListAll() ([]string, error) {
	count, err := s.NumDocs()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = []string{fieldPath}

	result, err := s.index.Search(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexCorrupt, err)
	}

	paths := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		path, _ := hit.Fields[fieldPath].(string)
		paths = append(paths, path)
	}
	return paths, nil
}

// Dir returns the directory this Store was opened on, so callers can
// close and Rebuild it in place.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) String() string {
	return fmt.Sprintf("index.Store(%s)", s.dir)
}
