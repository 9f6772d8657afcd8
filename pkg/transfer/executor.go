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

package transfer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/netmove/pkg/errclass"
	"github.com/walteh/netmove/pkg/fsys"
	"github.com/walteh/netmove/pkg/retry"
	"github.com/walteh/netmove/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// partialSuffix marks a cross-volume copy that has not been committed yet
const partialSuffix = ".netmove-partial"

const dirPerm = 0o755

// 🚚 Executor performs single units of work, each under its own retry budget
type Executor struct {
	fs         fsys.FS
	policy     retry.Policy
	classifier errclass.Classifier
	sink       status.Sink
	folder     string
}

// 🏭 NewExecutor creates an executor. A nil classifier uses errclass.Default
// and a nil sink discards events.
func NewExecutor(fs fsys.FS, policy retry.Policy, classifier errclass.Classifier, sink status.Sink) *Executor {
	if classifier == nil {
		classifier = errclass.Default
	}
	if sink == nil {
		sink = status.Discard
	}
	return &Executor{
		fs:         fs,
		policy:     policy,
		classifier: classifier,
		sink:       sink,
	}
}

// Scoped returns a copy whose retry events are attributed to folder.
func (e *Executor) Scoped(folder string) *Executor {
	cp := *e
	cp.folder = folder
	return &cp
}

// do runs op with a fresh retry budget and reports every retry against path
func (e *Executor) do(ctx context.Context, path string, op retry.Func) error {
	rel := path
	if e.folder != "" {
		if r, err := filepath.Rel(e.folder, path); err == nil {
			rel = r
		}
	}

	co := retry.New(e.policy,
		retry.WithClassifier(e.classifier),
		retry.WithNotify(func(ctx context.Context, st retry.State, delay time.Duration, err error) {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("path", path).
				Int("attempt", st.Attempt).
				Int("max_retries", st.MaxRetries).
				Dur("delay", delay).
				Msg("transient error, retrying")
			e.sink.Emit(ctx, status.Event{
				Folder:     e.folder,
				Path:       rel,
				Phase:      status.PhaseRetry,
				Action:     status.ActionRetrying,
				Reason:     err.Error(),
				Attempt:    st.Attempt,
				MaxRetries: st.MaxRetries,
				Delay:      delay,
				Err:        err,
			})
		}),
	)
	return co.Run(ctx, op)
}

// 📄 MoveFile moves one file, creating dst's parent directory first. When src
// and dst are on different volumes the bytes are copied to a temporary name,
// synced, renamed into place, and only then is src deleted.
func (e *Executor) MoveFile(ctx context.Context, src, dst string) error {
	attempt := 0
	copied := false

	err := e.do(ctx, src, func(ctx context.Context) error {
		attempt++

		if copied {
			// dst is complete, only the source removal failed last time
			return e.removeSource(src, attempt)
		}

		if attempt > 1 {
			// a rename that reported failure may still have landed
			if done, err := e.alreadyMoved(src, dst); err != nil || done {
				return err
			}
		}

		if err := e.fs.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
			return err
		}

		err := e.fs.Rename(src, dst)
		if err == nil {
			return nil
		}
		if !fsys.IsCrossDevice(err) {
			return err
		}

		zerolog.Ctx(ctx).Debug().Str("src", src).Str("dst", dst).Msg("rename crosses volumes, copying")
		if err := e.copyFile(src, dst); err != nil {
			return err
		}
		copied = true
		return e.removeSource(src, attempt)
	})
	if err != nil {
		return errors.Errorf("moving file %s: %w", src, err)
	}
	return nil
}

// 🌳 MoveTree renames src to dst in one step. It does not fall back to
// copying: a cross-volume failure is returned as is (see fsys.IsCrossDevice)
// so the caller can switch to a file-by-file merge.
func (e *Executor) MoveTree(ctx context.Context, src, dst string) error {
	attempt := 0

	err := e.do(ctx, src, func(ctx context.Context) error {
		attempt++

		if attempt > 1 {
			if done, err := e.alreadyMoved(src, dst); err != nil || done {
				return err
			}
		}

		if err := e.fs.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
			return err
		}
		return e.fs.Rename(src, dst)
	})
	if err != nil {
		return errors.Errorf("moving folder %s: %w", src, err)
	}
	return nil
}

// MakeDir creates dir and any missing parents. Existing directories are fine.
func (e *Executor) MakeDir(ctx context.Context, dir string) error {
	if err := e.do(ctx, dir, func(ctx context.Context) error {
		return e.fs.MkdirAll(dir, dirPerm)
	}); err != nil {
		return errors.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// RemoveFile deletes path. A path that vanished after a failed attempt counts
// as removed.
func (e *Executor) RemoveFile(ctx context.Context, path string) error {
	attempt := 0
	if err := e.do(ctx, path, func(ctx context.Context) error {
		attempt++
		return e.removeSource(path, attempt)
	}); err != nil {
		return errors.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists, retrying transient stat failures.
func (e *Executor) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	if err := e.do(ctx, path, func(ctx context.Context) error {
		var err error
		exists, err = fsys.Exists(e.fs, path)
		return err
	}); err != nil {
		return false, errors.Errorf("checking %s: %w", path, err)
	}
	return exists, nil
}

// Do runs an arbitrary operation under a fresh retry budget.
func (e *Executor) Do(ctx context.Context, path string, op retry.Func) error {
	return e.do(ctx, path, op)
}

func (e *Executor) removeSource(path string, attempt int) error {
	err := e.fs.Remove(path)
	if err != nil && attempt > 1 && os.IsNotExist(err) {
		return nil
	}
	return err
}

// alreadyMoved reports whether src is gone and dst is present
func (e *Executor) alreadyMoved(src, dst string) (bool, error) {
	srcExists, err := fsys.Exists(e.fs, src)
	if err != nil || srcExists {
		return false, err
	}
	return fsys.Exists(e.fs, dst)
}

// copyFile writes src to dst through a temporary name, keeping the mode bits
// and modification time. Symlinks are recreated, not followed. Every handle is
// closed and the temporary file removed on any failure.
func (e *Executor) copyFile(src, dst string) (err error) {
	linfo, err := e.fs.Lstat(src)
	if err != nil {
		return err
	}
	if linfo.Mode()&os.ModeSymlink != 0 {
		return e.copySymlink(src, dst)
	}

	in, err := e.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("cannot copy %s across volumes: not a regular file", src)
	}

	tmp := dst + partialSuffix
	out, err := e.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	closed := false
	defer func() {
		if !closed {
			out.Close()
		}
		if err != nil {
			_ = e.fs.Remove(tmp)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	closed = true
	if err = out.Close(); err != nil {
		return err
	}
	// zero atime leaves it unchanged
	if err = e.fs.Chtimes(tmp, time.Time{}, info.ModTime()); err != nil {
		return err
	}
	return e.fs.Rename(tmp, dst)
}

func (e *Executor) copySymlink(src, dst string) error {
	target, err := e.fs.Readlink(src)
	if err != nil {
		return err
	}
	tmp := dst + partialSuffix
	if err := e.fs.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := e.fs.Symlink(target, tmp); err != nil {
		return err
	}
	if err := e.fs.Rename(tmp, dst); err != nil {
		_ = e.fs.Remove(tmp)
		return err
	}
	return nil
}
