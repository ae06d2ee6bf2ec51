package watcher

import "time"

// Operation is the kind of index mutation a FileEvent resolves to.
// Create and rename/write events are reduced to Create/Modify/Delete at
// detection time by checking whether the path still exists on disk, so
// the debouncer and apply loop never need to special-case a rename.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing path was modified, or a rename
	// landed on a path that still exists.
	OpModify
	// OpDelete indicates a path was removed, or a rename left behind a
	// path that no longer exists.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is a single filesystem change, already resolved to an
// absolute path and a coarse operation kind.
type FileEvent struct {
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Options configures a Watcher's timing and batching behavior.
type Options struct {
	// DebounceWindow is how long rapid events for the same path are
	// coalesced before being applied. Default: 200ms.
	DebounceWindow time.Duration

	// PollInterval is the scan interval used when fsnotify is
	// unavailable. Default: 5s.
	PollInterval time.Duration

	// EventBufferSize bounds the error channel buffer.
	EventBufferSize int

	// CommitEvery is the mutation count at which a pending batch is
	// committed to the Index Store. Default: 1000. Callers running
	// close behind an active bulk build may pass a smaller value, such
	// as 200, to bound staleness more tightly.
	CommitEvery int

	// RendezvousPoll is how often the State Store is polled at startup
	// for indexed=="true". Default: 2s.
	RendezvousPoll time.Duration
}

// DefaultOptions returns the watcher defaults used in production.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 1000,
		CommitEvery:     1000,
		RendezvousPoll:  2 * time.Second,
	}
}

// WithDefaults fills zero-valued fields with DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = d.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = d.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = d.EventBufferSize
	}
	if o.CommitEvery == 0 {
		o.CommitEvery = d.CommitEvery
	}
	if o.RendezvousPoll == 0 {
		o.RendezvousPoll = d.RendezvousPoll
	}
	return o
}
