// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package walker enumerates a source folder depth-first, directories before
// their contents, so callers can create each destination directory before
// moving anything into it.
package walker

import (
	"fmt"
	"iter"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/netmove/pkg/fsys"
	"gitlab.com/tozd/go/errors"
)

// 📂 Kind is the type of a walked entry
type Kind int

const (
	File Kind = iota
	Directory
)

func (k Kind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// 📄 Entry is one walked path
type Entry struct {
	// RelPath is relative to the walk root, using the host separator.
	RelPath string
	Kind    Kind
	// Excluded entries matched an exclude pattern. Excluded directories are
	// yielded once and not descended into.
	Excluded bool
}

// ListError reports a directory that could not be listed. The walk skips that
// subtree and carries on with its siblings.
type ListError struct {
	RelPath string
	Err     error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("listing %s: %v", e.RelPath, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// 🚶 Walker walks folders through an fsys.FS
type Walker struct {
	fs       fsys.FS
	excludes []string
}

// 🏭 New creates a walker. Exclude patterns are doublestar globs matched
// against slash-separated relative paths.
func New(fs fsys.FS, excludes []string) (*Walker, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return &Walker{fs: fs, excludes: excludes}, nil
}

// HasExcludes reports whether any exclude pattern is configured.
func (w *Walker) HasExcludes() bool {
	return len(w.excludes) > 0
}

// 🔄 Walk lazily yields the entries below root. The root itself is not
// yielded. Each call re-walks from the root; stopping the range loop early
// stops listing.
func (w *Walker) Walk(root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		w.walkDir(root, ".", yield)
	}
}

// walkDir returns false once the consumer has stopped
func (w *Walker) walkDir(root, rel string, yield func(Entry, error) bool) bool {
	entries, err := w.fs.ReadDir(filepath.Join(root, rel))
	if err != nil {
		return yield(Entry{RelPath: rel, Kind: Directory}, &ListError{RelPath: rel, Err: err})
	}

	for _, de := range entries {
		childRel := de.Name()
		if rel != "." {
			childRel = filepath.Join(rel, de.Name())
		}

		entry := Entry{RelPath: childRel, Kind: File}
		if de.IsDir() {
			entry.Kind = Directory
		}
		entry.Excluded = w.isExcluded(filepath.ToSlash(childRel), entry.Kind)

		if !yield(entry, nil) {
			return false
		}
		if entry.Kind == Directory && !entry.Excluded {
			if !w.walkDir(root, childRel, yield) {
				return false
			}
		}
	}
	return true
}

func (w *Walker) isExcluded(rel string, kind Kind) bool {
	for _, pattern := range w.excludes {
		if strings.HasSuffix(pattern, "/") {
			// "dir/" only matches directories
			if kind != Directory {
				continue
			}
			pattern = strings.TrimSuffix(pattern, "/")
		}
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		// bare names like ".DS_Store" match at any depth
		if !strings.Contains(pattern, "/") {
			if matched, _ := doublestar.Match(pattern, path.Base(rel)); matched {
				return true
			}
		}
	}
	return false
}
