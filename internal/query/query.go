// Package query implements the Query Service: a long-lived request/response
// loop over a pair of channels, running the search term against the Index
// Store's reader and enriching each hit with filesystem metadata.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aharper/filesearch/internal/index"
	"github.com/aharper/filesearch/pkg/entry"
)

// maxHits bounds how many ranked hits are read from the reader per query.
const maxHits = 100

// Request is a single search term dequeued from the request channel.
type Request struct {
	Query string
}

// Result is the full response for one Request, published as a unit.
type Result struct {
	Entries []entry.Entry
}

// Dependencies are the injected collaborators a Service needs.
type Dependencies struct {
	Index     *index.Store
	RequestRx <-chan Request
	ResultTx  chan<- Result
}

// Service is the running query loop. Construct with New, then Start it;
// the loop is single-consumer on RequestRx, so result batches for a
// single consumer are published in the order their queries were
// dequeued.
type Service struct {
	deps Dependencies
}

// New validates the given dependencies.
func New(deps Dependencies) (*Service, error) {
	if deps.Index == nil {
		return nil, fmt.Errorf("query: Index store is required")
	}
	if deps.RequestRx == nil {
		return nil, fmt.Errorf("query: RequestRx is required")
	}
	if deps.ResultTx == nil {
		return nil, fmt.Errorf("query: ResultTx is required")
	}
	return &Service{deps: deps}, nil
}

// Start spawns the request loop and returns immediately. The loop exits
// once ctx is cancelled or RequestRx is closed.
func (s *Service) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-s.deps.RequestRx:
			if !ok {
				return
			}
			s.handle(req)
		}
	}
}

// handle processes one request synchronously: trim, short-circuit on
// empty, search, stat-enrich, publish.
func (s *Service) handle(req Request) {
	term := strings.TrimSpace(req.Query)
	if term == "" {
		s.publish(Result{})
		return
	}

	hits, err := s.deps.Index.Search(term, maxHits)
	if err != nil {
		slog.Warn("query_search_failed", slog.String("query", term), slog.String("error", err.Error()))
		s.publish(Result{})
		return
	}

	entries := make([]entry.Entry, 0, len(hits))
	for _, hit := range hits {
		entries = append(entries, statEntry(hit.Path))
	}
	s.publish(Result{Entries: entries})
}

// publish is a non-blocking try-send: a backed-up consumer drops the
// result rather than stall the loop, which is safe because queries are
// idempotent and the next keystroke supersedes it.
func (s *Service) publish(result Result) {
	select {
	case s.deps.ResultTx <- result:
	default:
		slog.Warn("query_result_dropped", slog.Int("entries", len(result.Entries)))
	}
}

// statEntry resolves a stored path to an Entry. On a successful stat,
// size/modified-time/kind come from the filesystem. On failure (the
// entry has gone stale since it was indexed), it is still returned, with
// size 0, today's date, and a best-effort kind.
func statEntry(path string) entry.Entry {
	info, err := os.Stat(path)
	if err != nil {
		return entry.Entry{
			Name:       entry.DisplayName(path),
			Path:       path,
			Kind:       staleKind(path),
			Size:       0,
			ModifiedAt: time.Now(),
		}
	}

	return entry.Entry{
		Name:       entry.DisplayName(path),
		Path:       path,
		Kind:       entry.KindOf(path, info.IsDir()),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}
}

// staleKind derives a kind for a path that could not be stat'd: the
// extension when derivable, "unknown" otherwise (a stale entry's
// directory-ness can't be known without a filesystem).
func staleKind(path string) string {
	name := entry.DisplayName(path)
	if idx := strings.LastIndex(name, "."); idx > 0 && idx < len(name)-1 {
		return name[idx+1:]
	}
	return "unknown"
}
