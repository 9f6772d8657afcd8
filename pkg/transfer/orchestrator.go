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
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/netmove/pkg/conflict"
	"github.com/walteh/netmove/pkg/errclass"
	"github.com/walteh/netmove/pkg/fsys"
	"github.com/walteh/netmove/pkg/retry"
	"github.com/walteh/netmove/pkg/status"
	"github.com/walteh/netmove/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// 🚦 State is a step of the folder state machine
//
//	Start -> DirectMove -> Complete | Failed
//	Start -> Merge      -> Complete | Failed
type State int

const (
	StateStart State = iota
	StateDirectMove
	StateMerge
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateDirectMove:
		return "direct-move"
	case StateMerge:
		return "merge"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 🔧 Options configures an Orchestrator
type Options struct {
	FS         fsys.FS
	Policy     retry.Policy
	Classifier errclass.Classifier
	Sink       status.Sink
	// Excludes are doublestar globs of source paths that are never moved.
	Excludes []string
	// PruneEmpty removes source directories left empty by a completed merge.
	PruneEmpty bool
}

// 🎼 Orchestrator drives a single folder through the transfer state machine
type Orchestrator struct {
	fs         fsys.FS
	exec       *Executor
	walker     *walker.Walker
	resolver   *conflict.Resolver
	sink       status.Sink
	pruneEmpty bool
}

// 🏭 NewOrchestrator creates an orchestrator
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.FS == nil {
		opts.FS = fsys.OS{}
	}
	if opts.Sink == nil {
		opts.Sink = status.Discard
	}

	w, err := walker.New(opts.FS, opts.Excludes)
	if err != nil {
		return nil, errors.Errorf("creating walker: %w", err)
	}

	return &Orchestrator{
		fs:         opts.FS,
		exec:       NewExecutor(opts.FS, opts.Policy, opts.Classifier, opts.Sink),
		walker:     w,
		resolver:   conflict.New(opts.FS),
		sink:       opts.Sink,
		pruneEmpty: opts.PruneEmpty,
	}, nil
}

// 🏃 Transfer moves task.Source into task.DestinationRoot. It never panics or
// exits on failure; the result is always an Outcome.
func (o *Orchestrator) Transfer(ctx context.Context, task Task) Outcome {
	src := filepath.Clean(task.Source)
	dst := task.Destination()

	logger := zerolog.Ctx(ctx).With().Str("folder", src).Str("destination", dst).Logger()
	ctx = logger.WithContext(ctx)

	exec := o.exec.Scoped(src)
	o.emit(ctx, status.Event{Folder: src, Phase: status.PhaseFolder, Action: status.ActionStarted, Reason: dst})

	exists, err := exec.Exists(ctx, dst)
	if err != nil {
		return o.finish(ctx, src, Fail(StateStart, Stats{}, err))
	}

	if exists {
		logger.Debug().Msg("destination exists, merging")
		return o.finish(ctx, src, o.merge(ctx, exec, src, dst))
	}

	if o.walker.HasExcludes() {
		// a whole-tree rename would carry excluded entries along
		logger.Debug().Msg("exclude patterns set, merging into new destination")
		if err := exec.MakeDir(ctx, dst); err != nil {
			return o.finish(ctx, src, Fail(StateMerge, Stats{}, err))
		}
		return o.finish(ctx, src, o.merge(ctx, exec, src, dst))
	}

	return o.finish(ctx, src, o.directMove(ctx, exec, src, dst))
}

func (o *Orchestrator) directMove(ctx context.Context, exec *Executor, src, dst string) Outcome {
	logger := zerolog.Ctx(ctx)
	o.emit(ctx, status.Event{Folder: src, Phase: status.PhaseMove, Action: status.ActionStarted, Reason: dst})

	err := exec.MoveTree(ctx, src, dst)
	if err == nil {
		return Succeeded(StateDirectMove, Stats{TreeMoved: true})
	}

	if !fsys.IsCrossDevice(err) {
		return Fail(StateDirectMove, Stats{}, err)
	}

	logger.Info().Msg("destination is on another volume, merging file by file")
	if err := exec.MakeDir(ctx, dst); err != nil {
		return Fail(StateMerge, Stats{}, err)
	}
	return o.merge(ctx, exec, src, dst)
}

// merge reconciles src into an existing dst one file at a time. Files already
// moved by an earlier run are no longer in src, so re-running is idempotent.
func (o *Orchestrator) merge(ctx context.Context, exec *Executor, src, dst string) Outcome {
	logger := zerolog.Ctx(ctx)
	o.emit(ctx, status.Event{Folder: src, Phase: status.PhaseMerge, Action: status.ActionStarted, Reason: dst})

	var (
		stats   Stats
		dirs    []string
		walkErr error
	)

	for entry, err := range o.walker.Walk(src) {
		if err != nil {
			// the unlistable subtree is lost for this run, its siblings are not
			logger.Error().Err(err).Str("path", entry.RelPath).Msg("cannot list directory")
			o.emit(ctx, status.Event{Folder: src, Path: entry.RelPath, Phase: status.PhaseDir, Action: status.ActionFailed, Reason: err.Error(), Err: err})
			if walkErr == nil {
				walkErr = errors.Errorf("source folder only partially listed: %w", err)
			}
			continue
		}

		srcPath := filepath.Join(src, entry.RelPath)
		dstPath := filepath.Join(dst, entry.RelPath)

		if entry.Excluded {
			stats.Excluded++
			o.emit(ctx, status.Event{Folder: src, Path: entry.RelPath, Phase: phaseOf(entry.Kind), Action: status.ActionExcluded})
			continue
		}

		if err := ctx.Err(); err != nil {
			return Fail(StateMerge, stats, errors.Errorf("transfer cancelled: %w", err))
		}

		if entry.Kind == walker.Directory {
			if err := exec.MakeDir(ctx, dstPath); err != nil {
				return o.failFile(ctx, src, entry, stats, err)
			}
			stats.Directories++
			dirs = append(dirs, srcPath)
			o.emit(ctx, status.Event{Folder: src, Path: entry.RelPath, Phase: status.PhaseDir, Action: status.ActionCreated})
			continue
		}

		if err := o.mergeFile(ctx, exec, src, entry, srcPath, dstPath, &stats); err != nil {
			return o.failFile(ctx, src, entry, stats, err)
		}
	}

	if walkErr != nil {
		return Fail(StateMerge, stats, walkErr)
	}

	if o.pruneEmpty {
		o.prune(ctx, src, dirs)
	}

	return Succeeded(StateMerge, stats)
}

func (o *Orchestrator) mergeFile(ctx context.Context, exec *Executor, folder string, entry walker.Entry, srcPath, dstPath string, stats *Stats) error {
	var res conflict.Resolution
	if err := exec.Do(ctx, srcPath, func(ctx context.Context) error {
		var err error
		res, err = o.resolver.Resolve(srcPath, dstPath)
		return err
	}); err != nil {
		return errors.Errorf("resolving conflict for %s: %w", entry.RelPath, err)
	}

	switch res.Decision {
	case conflict.NoConflict:
		if err := exec.MoveFile(ctx, srcPath, dstPath); err != nil {
			return err
		}
		stats.Moved++
		stats.Bytes += res.SourceSize
		o.emit(ctx, status.Event{Folder: folder, Path: entry.RelPath, Phase: status.PhaseFile, Action: status.ActionMoved, Bytes: res.SourceSize})

	case conflict.DuplicateDeleteSource:
		if err := exec.RemoveFile(ctx, srcPath); err != nil {
			return err
		}
		stats.Duplicates++
		o.emit(ctx, status.Event{Folder: folder, Path: entry.RelPath, Phase: status.PhaseFile, Action: status.ActionDuplicate, Reason: res.Reason, Bytes: res.SourceSize})

	case conflict.SizeMismatchSkip:
		stats.Conflicts++
		zerolog.Ctx(ctx).Warn().
			Str("path", entry.RelPath).
			Int64("source_size", res.SourceSize).
			Int64("destination_size", res.DestinationSize).
			Msg("destination differs, leaving source for review")
		o.emit(ctx, status.Event{Folder: folder, Path: entry.RelPath, Phase: status.PhaseFile, Action: status.ActionConflict, Reason: res.Reason})
	}
	return nil
}

func (o *Orchestrator) failFile(ctx context.Context, folder string, entry walker.Entry, stats Stats, err error) Outcome {
	o.emit(ctx, status.Event{Folder: folder, Path: entry.RelPath, Phase: phaseOf(entry.Kind), Action: status.ActionFailed, Reason: err.Error(), Err: err})
	return Fail(StateMerge, stats, err)
}

// prune removes now-empty source directories deepest first, then the root.
// Directories that still hold anything are left alone.
func (o *Orchestrator) prune(ctx context.Context, src string, dirs []string) {
	logger := zerolog.Ctx(ctx)

	candidates := make([]string, 0, len(dirs)+1)
	for i := len(dirs) - 1; i >= 0; i-- {
		candidates = append(candidates, dirs[i])
	}
	candidates = append(candidates, src)

	for _, dir := range candidates {
		entries, err := o.fs.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := o.fs.Remove(dir); err != nil {
			logger.Debug().Err(err).Str("dir", dir).Msg("leaving directory in place")
			continue
		}
		rel, _ := filepath.Rel(src, dir)
		o.emit(ctx, status.Event{Folder: src, Path: rel, Phase: status.PhasePrune, Action: status.ActionRemoved})
	}
}

func (o *Orchestrator) finish(ctx context.Context, src string, out Outcome) Outcome {
	logger := zerolog.Ctx(ctx)
	ev := status.Event{Folder: src, Phase: status.PhaseFolder, Reason: out.Stats.String()}

	switch out.Kind {
	case Success:
		ev.Action = status.ActionComplete
		logger.Info().Str("via", out.Via.String()).Str("stats", out.Stats.String()).Msg("folder transfer complete")
	default:
		ev.Action = status.ActionFailed
		ev.Reason = out.Reason
		ev.Err = out.Err
		logger.Error().Err(out.Err).Str("via", out.Via.String()).Msg("folder transfer failed")
	}

	o.emit(ctx, ev)
	return out
}

func (o *Orchestrator) emit(ctx context.Context, ev status.Event) {
	o.sink.Emit(ctx, ev)
}

func phaseOf(k walker.Kind) status.Phase {
	if k == walker.Directory {
		return status.PhaseDir
	}
	return status.PhaseFile
}
