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

// Package batch runs folder transfers over a list of sources and collects a
// summary. A failing folder never stops the batch.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/netmove/pkg/fsys"
	"github.com/walteh/netmove/pkg/status"
	"github.com/walteh/netmove/pkg/transfer"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

const (
	reasonMissing   = "source folder does not exist"
	reasonNotDir    = "source is not a directory"
	reasonNoName    = "source has no folder name"
	reasonCancelled = "cancelled"
)

// ProgressFunc is called once per finished folder. done counts folders
// finished so far, including this one.
type ProgressFunc func(done, total int, entry Entry)

// 🔧 Options configures a Coordinator
type Options struct {
	Transfer transfer.Options
	// Workers bounds how many folders run at once. Values below 2 run the
	// batch sequentially in input order.
	Workers  int
	Progress ProgressFunc
}

// 📦 Coordinator drives a batch of folder transfers
type Coordinator struct {
	fs       fsys.FS
	orch     *transfer.Orchestrator
	sink     status.Sink
	workers  int
	progress ProgressFunc
}

// 🏭 New creates a Coordinator
func New(opts Options) (*Coordinator, error) {
	if opts.Transfer.FS == nil {
		opts.Transfer.FS = fsys.OS{}
	}
	if opts.Transfer.Sink == nil {
		opts.Transfer.Sink = status.Discard
	}

	orch, err := transfer.NewOrchestrator(opts.Transfer)
	if err != nil {
		return nil, errors.Errorf("creating orchestrator: %w", err)
	}

	return &Coordinator{
		fs:       opts.Transfer.FS,
		orch:     orch,
		sink:     opts.Transfer.Sink,
		workers:  max(opts.Workers, 1),
		progress: opts.Progress,
	}, nil
}

// 🏃 Run transfers every source into destRoot and returns one entry per source
// in input order. Folders that share a destination path are never run at the
// same time.
func (c *Coordinator) Run(ctx context.Context, sources []string, destRoot string) *Summary {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	summary := &Summary{Entries: make([]Entry, len(sources))}
	for i, src := range sources {
		summary.Entries[i].Source = src
	}

	c.sink.Emit(ctx, status.Event{Phase: status.PhaseBatch, Action: status.ActionStarted, Reason: destRoot})
	logger.Info().Int("folders", len(sources)).Str("destination", destRoot).Int("workers", c.workers).Msg("starting batch")

	var (
		mu   sync.Mutex
		done int
	)
	runGroup := func(indexes []int) {
		for _, i := range indexes {
			out := c.runOne(ctx, transfer.Task{Source: sources[i], DestinationRoot: destRoot})

			mu.Lock()
			summary.Entries[i].Outcome = out
			done++
			n := done
			mu.Unlock()

			if c.progress != nil {
				c.progress(n, len(sources), summary.Entries[i])
			}
		}
	}

	groups := groupByDestination(sources, destRoot)

	if c.workers == 1 {
		for _, g := range groups {
			runGroup(g)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.workers)
		for _, indexes := range groups {
			g.Go(func() error {
				runGroup(indexes)
				return nil
			})
		}
		_ = g.Wait()
	}

	summary.Duration = time.Since(start)
	counts := summary.Counts()

	c.sink.Emit(ctx, status.Event{Phase: status.PhaseBatch, Action: status.ActionComplete, Reason: counts.String()})
	logger.Info().
		Int("success", counts.Success).
		Int("skipped", counts.Skipped).
		Int("failed", counts.Failed).
		Dur("duration", summary.Duration).
		Msg("batch complete")

	return summary
}

func (c *Coordinator) runOne(ctx context.Context, task transfer.Task) transfer.Outcome {
	logger := zerolog.Ctx(ctx)

	if ctx.Err() != nil {
		return c.skip(ctx, task.Source, reasonCancelled)
	}

	// "/" or "." would resolve to the destination root itself
	switch filepath.Base(filepath.Clean(task.Source)) {
	case string(filepath.Separator), ".", "..":
		return c.skip(ctx, task.Source, reasonNoName)
	}

	info, err := c.fs.Stat(task.Source)
	switch {
	case os.IsNotExist(err):
		return c.skip(ctx, task.Source, reasonMissing)
	case err != nil:
		logger.Error().Err(err).Str("folder", task.Source).Msg("cannot inspect source folder")
		out := transfer.Fail(transfer.StateStart, transfer.Stats{}, errors.Errorf("checking source %s: %w", task.Source, err))
		c.sink.Emit(ctx, status.Event{Folder: filepath.Clean(task.Source), Phase: status.PhaseFolder, Action: status.ActionFailed, Reason: out.Reason, Err: out.Err})
		return out
	case !info.IsDir():
		return c.skip(ctx, task.Source, reasonNotDir)
	}

	return c.orch.Transfer(ctx, task)
}

func (c *Coordinator) skip(ctx context.Context, src, reason string) transfer.Outcome {
	zerolog.Ctx(ctx).Warn().Str("folder", src).Str("reason", reason).Msg("skipping folder")
	c.sink.Emit(ctx, status.Event{Folder: filepath.Clean(src), Phase: status.PhaseFolder, Action: status.ActionSkipped, Reason: reason})
	return transfer.Skip(reason)
}

// groupByDestination buckets source indexes by the destination path they
// resolve to, keeping input order within and across buckets.
func groupByDestination(sources []string, destRoot string) [][]int {
	var groups [][]int
	seen := map[string]int{}
	for i, src := range sources {
		dst := transfer.Task{Source: src, DestinationRoot: destRoot}.Destination()
		if g, ok := seen[dst]; ok {
			groups[g] = append(groups[g], i)
			continue
		}
		seen[dst] = len(groups)
		groups = append(groups, []int{i})
	}
	return groups
}
