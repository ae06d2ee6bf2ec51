package state

import (
	"strconv"
	"time"
)

// Well-known State Store keys. These coordinate first-run vs. resumed
// operation between the Indexer, Watcher, and Query Service.
const (
	KeyIndexed             = "indexed"
	KeyIndexedFiles        = "indexed_files"
	KeyIndexedProgress     = "indexed_progress"
	KeyLastIndexed         = "last_indexed"
	KeyVersion             = "version"
	KeyRefresh             = "refresh"
	KeyExclusionList       = "exclusion_list"
	KeyIncludeRoot         = "include_root"
	KeyFreshnessWindowDays = "freshness_window_days"
)

// DefaultFreshnessWindowDays is used when KeyFreshnessWindowDays is absent,
// preserving the original hard-coded 15-day rebuild trigger while exposing
// it as an overridable configuration key.
const DefaultFreshnessWindowDays = 15

// IsIndexed reports whether the "indexed" flag is exactly "true".
func (s *Store) IsIndexed() (bool, error) {
	v, _, err := s.Get(KeyIndexed)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// IndexedFiles returns the running count published during a bulk build,
// defaulting to 0 if unset or unparsable.
func (s *Store) IndexedFiles() (int64, error) {
	v, found, err := s.Get(KeyIndexedFiles)
	if err != nil || !found {
		return 0, err
	}
	n, parseErr := strconv.ParseInt(v, 10, 64)
	if parseErr != nil {
		return 0, nil
	}
	return n, nil
}

// LastIndexed returns the timestamp recorded when the last successful build
// completed (see MarkBuildComplete), and
// whether the key was present at all.
func (s *Store) LastIndexed() (time.Time, bool, error) {
	v, found, err := s.Get(KeyLastIndexed)
	if err != nil || !found {
		return time.Time{}, false, err
	}
	sec, parseErr := strconv.ParseInt(v, 10, 64)
	if parseErr != nil {
		return time.Time{}, false, nil
	}
	return time.Unix(sec, 0), true, nil
}

// FreshnessWindow returns the configured rebuild freshness window, falling
// back to DefaultFreshnessWindowDays when KeyFreshnessWindowDays is absent
// or unparsable.
func (s *Store) FreshnessWindow() (time.Duration, error) {
	v, found, err := s.Get(KeyFreshnessWindowDays)
	if err != nil {
		return 0, err
	}
	days := DefaultFreshnessWindowDays
	if found {
		if n, parseErr := strconv.Atoi(v); parseErr == nil && n > 0 {
			days = n
		}
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

// SetIndexedFiles publishes a monotonic progress counter.
func (s *Store) SetIndexedFiles(n int64) error {
	return s.Set(KeyIndexedFiles, strconv.FormatInt(n, 10))
}

// SetIndexedProgress publishes the percentage (0.0-100.0) of top-level
// roots processed so far.
func (s *Store) SetIndexedProgress(pct float64) error {
	return s.Set(KeyIndexedProgress, strconv.FormatFloat(pct, 'f', 2, 64))
}

// MarkBuildStarted resets the flag keys at the start of a bulk build, per
// the rebuild procedure: indexed=false, refresh=false, counters zeroed.
func (s *Store) MarkBuildStarted(version string) error {
	return s.BatchSet(map[string]string{
		KeyIndexed:         "false",
		KeyRefresh:         "false",
		KeyIndexedFiles:    "0",
		KeyIndexedProgress: "0.00",
		KeyVersion:         version,
	})
}

// MarkBuildComplete sets indexed=true and last_indexed=now, as the final
// step of a bulk build.
func (s *Store) MarkBuildComplete(now time.Time) error {
	return s.BatchSet(map[string]string{
		KeyIndexed:     "true",
		KeyLastIndexed: strconv.FormatInt(now.Unix(), 10),
	})
}

// NeedsRebuild evaluates the three independent rebuild triggers: refresh
// requested, version mismatch, or staleness beyond the freshness window.
func (s *Store) NeedsRebuild(currentVersion string, now time.Time) (bool, error) {
	indexed, err := s.IsIndexed()
	if err != nil {
		return false, err
	}
	if !indexed {
		return true, nil
	}

	refresh, _, err := s.Get(KeyRefresh)
	if err != nil {
		return false, err
	}
	if refresh == "true" {
		return true, nil
	}

	version, found, err := s.Get(KeyVersion)
	if err != nil {
		return false, err
	}
	if !found || version != currentVersion {
		return true, nil
	}

	lastIndexed, found, err := s.LastIndexed()
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	window, err := s.FreshnessWindow()
	if err != nil {
		return false, err
	}
	if now.Sub(lastIndexed) > window {
		return true, nil
	}

	return false, nil
}
