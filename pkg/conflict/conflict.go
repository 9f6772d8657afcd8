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

// Package conflict decides what to do with a source file whose destination
// path may already be populated by an earlier, partial transfer.
//
// Only byte sizes are compared. Two different files of equal size are treated
// as duplicates; this keeps the check O(1) for multi-gigabyte slides and is a
// known limitation rather than an oversight.
package conflict

import (
	"fmt"
	"os"

	"github.com/walteh/netmove/pkg/fsys"
	"gitlab.com/tozd/go/errors"
)

// ⚖️ Decision is the outcome of comparing a source file with its destination
type Decision int

const (
	// NoConflict means the destination is absent and the file should be moved.
	NoConflict Decision = iota
	// DuplicateDeleteSource means an equal-size copy already exists at the
	// destination; the source copy is redundant.
	DuplicateDeleteSource
	// SizeMismatchSkip means a different file occupies the destination; the
	// source is left untouched for manual review.
	SizeMismatchSkip
)

func (d Decision) String() string {
	switch d {
	case NoConflict:
		return "no-conflict"
	case DuplicateDeleteSource:
		return "duplicate"
	case SizeMismatchSkip:
		return "size-mismatch"
	default:
		return "unknown"
	}
}

// 📋 Resolution is a Decision plus the facts behind it
type Resolution struct {
	Decision        Decision
	SourceSize      int64
	DestinationSize int64
	Reason          string
}

// 🔍 Resolver compares file pairs through an fsys.FS
type Resolver struct {
	fs fsys.FS
}

// New creates a resolver.
func New(fs fsys.FS) *Resolver {
	return &Resolver{fs: fs}
}

// 🎯 Resolve compares src with dst. Neither path is followed if it is a
// symlink. Errors come from lstat calls and are returned unclassified.
func (r *Resolver) Resolve(src, dst string) (Resolution, error) {
	srcInfo, err := r.fs.Lstat(src)
	if err != nil {
		return Resolution{}, errors.Errorf("stat source: %w", err)
	}

	dstInfo, err := r.fs.Lstat(dst)
	if os.IsNotExist(err) {
		return Resolution{Decision: NoConflict, SourceSize: srcInfo.Size()}, nil
	}
	if err != nil {
		return Resolution{}, errors.Errorf("stat destination: %w", err)
	}

	res := Resolution{
		SourceSize:      srcInfo.Size(),
		DestinationSize: dstInfo.Size(),
	}

	switch {
	case dstInfo.IsDir():
		res.Decision = SizeMismatchSkip
		res.Reason = "destination is a directory"
	case srcInfo.Size() == dstInfo.Size():
		res.Decision = DuplicateDeleteSource
		res.Reason = fmt.Sprintf("destination already holds %d bytes", dstInfo.Size())
	default:
		res.Decision = SizeMismatchSkip
		res.Reason = fmt.Sprintf("size differs: source %d bytes, destination %d bytes", srcInfo.Size(), dstInfo.Size())
	}
	return res, nil
}
