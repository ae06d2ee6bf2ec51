// Package entry defines the Entry type shared between the indexing core
// and any presentation layer. It has no dependency on the UI: the UI
// adapts Entry to its own view model, not the other way around.
package entry

import (
	"path"
	"strings"
	"time"
)

// Entry is a single file or directory known to the search index.
//
// Only Name and Path are persisted in the index itself; Kind, Size, and
// ModifiedAt are recomputed from filesystem metadata at query time, so
// the index stays authoritative only for (name, path).
type Entry struct {
	// Name is the display name: the last non-empty path segment.
	Name string

	// Path is the absolute path and the entry's primary identity.
	Path string

	// Kind is the file extension without the leading dot if present,
	// otherwise "folder" for directories or "file" for extension-less files.
	Kind string

	// Size is the file size in bytes. Zero for stale entries that could
	// not be stat'd.
	Size int64

	// ModifiedAt is the last-modified time reported by the filesystem.
	ModifiedAt time.Time
}

// DisplayName splits p on "/" from the right and returns the first
// non-empty component, matching the Indexer's add_one derivation rule.
func DisplayName(p string) string {
	for {
		base := path.Base(p)
		if base != "" && base != "." && base != "/" {
			return base
		}
		trimmed := strings.TrimRight(p, "/")
		if trimmed == p {
			return p
		}
		p = trimmed
		if p == "" {
			return ""
		}
	}
}

// KindOf derives the Kind field from a path and a directory flag.
// An extension is the text after the final '.' in the display name,
// when non-empty and when that '.' is not the first character (a dotfile
// such as ".bashrc" has no extension); otherwise "folder" or "file".
func KindOf(p string, isDir bool) string {
	name := DisplayName(p)
	if idx := strings.LastIndex(name, "."); idx > 0 && idx < len(name)-1 {
		return name[idx+1:]
	}
	if isDir {
		return "folder"
	}
	return "file"
}
