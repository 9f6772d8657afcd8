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

//go:build !windows

package transfer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/netmove/pkg/fsys"
	"github.com/walteh/netmove/pkg/fsys/fsystest"
	"github.com/walteh/netmove/pkg/retry"
	"github.com/walteh/netmove/pkg/status"
	"github.com/walteh/netmove/pkg/transfer"
	"github.com/walteh/netmove/pkg/walker"
	"golang.org/x/sys/unix"
)

var caseFiles = map[string]string{
	"a.svs":           "slide a",
	"b.svs":           "slide bb",
	"c.svs":           "slide ccc",
	"meta/info.json":  `{"id":1}`,
	"meta/deep/x.txt": "x",
}

type fixture struct {
	src     string
	dstRoot string
	dst     string
}

func newFixture(t *testing.T, files map[string]string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		src:     filepath.Join(dir, "local", "case01"),
		dstRoot: filepath.Join(dir, "share"),
	}
	f.dst = filepath.Join(f.dstRoot, "case01")
	writeTree(t, f.src, files)
	return f
}

func (f fixture) task() transfer.Task {
	return transfer.Task{Source: f.src, DestinationRoot: f.dstRoot}
}

func newOrchestrator(t *testing.T, opts transfer.Options) *transfer.Orchestrator {
	t.Helper()
	if opts.Policy.BaseDelay == 0 {
		opts.Policy = fastPolicy(3)
	}
	o, err := transfer.NewOrchestrator(opts)
	require.NoError(t, err)
	return o
}

func TestTransferDirectMove(t *testing.T) {
	ctx := testCtx(t)
	f := newFixture(t, caseFiles)
	rec := status.NewRecorder()

	out := newOrchestrator(t, transfer.Options{Sink: rec}).Transfer(ctx, f.task())

	require.Equal(t, transfer.Success, out.Kind, out.String())
	assert.Equal(t, transfer.StateDirectMove, out.Via)
	assert.True(t, out.Stats.TreeMoved)
	assert.False(t, exists(f.src), "source folder should be gone")
	assert.Equal(t, caseFiles, readTree(t, f.dst))

	assert.Len(t, rec.Filter(status.PhaseFolder, status.ActionStarted), 1)
	assert.Len(t, rec.Filter(status.PhaseFolder, status.ActionComplete), 1)
	assert.Empty(t, rec.Filter(status.PhaseFile, status.ActionMoved), "no per-file events for a tree rename")
}

func TestTransferMergeIntoExisting(t *testing.T) {
	ctx := testCtx(t)
	f := newFixture(t, caseFiles)
	writeTree(t, f.dst, map[string]string{
		"a.svs":     "slide a",       // same size: duplicate
		"b.svs":     "a much longer", // different size: conflict
		"other.txt": "keep me",
	})

	rec := status.NewRecorder()
	out := newOrchestrator(t, transfer.Options{Sink: rec}).Transfer(ctx, f.task())

	require.Equal(t, transfer.Success, out.Kind, out.String())
	assert.Equal(t, transfer.StateMerge, out.Via)
	assert.Equal(t, 3, out.Stats.Moved)
	assert.Equal(t, 1, out.Stats.Duplicates)
	assert.Equal(t, 1, out.Stats.Conflicts)
	assert.Equal(t, 2, out.Stats.Directories)
	assert.Equal(t, int64(len("slide ccc")+len(`{"id":1}`)+len("x")), out.Stats.Bytes)

	assert.Equal(t, map[string]string{
		"a.svs":           "slide a",
		"b.svs":           "a much longer",
		"c.svs":           "slide ccc",
		"meta/info.json":  `{"id":1}`,
		"meta/deep/x.txt": "x",
		"other.txt":       "keep me",
	}, readTree(t, f.dst))

	// only the conflicting file is left behind, byte for byte
	assert.Equal(t, map[string]string{"b.svs": "slide bb"}, readTree(t, f.src))

	conflicts := rec.Filter(status.PhaseFile, status.ActionConflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "b.svs", conflicts[0].Path)
	assert.Len(t, rec.Filter(status.PhaseFile, status.ActionDuplicate), 1)
}

func TestTransferMergeIsIdempotent(t *testing.T) {
	ctx := testCtx(t)
	f := newFixture(t, caseFiles)
	writeTree(t, f.dst, map[string]string{"b.svs": "a much longer"})

	o := newOrchestrator(t, transfer.Options{})

	first := o.Transfer(ctx, f.task())
	require.Equal(t, transfer.Success, first.Kind, first.String())
	afterFirst := readTree(t, f.dst)

	second := o.Transfer(ctx, f.task())
	require.Equal(t, transfer.Success, second.Kind, second.String())
	assert.Equal(t, 0, second.Stats.Moved)
	assert.Equal(t, int64(0), second.Stats.Bytes)
	assert.Equal(t, 1, second.Stats.Conflicts)
	assert.Equal(t, afterFirst, readTree(t, f.dst), "second run must not change the destination")
}

func TestTransferMergeMovesDanglingSymlink(t *testing.T) {
	ctx := testCtx(t)
	f := newFixture(t, map[string]string{"a.svs": "aaaa", "z.svs": "zzzz"})
	require.NoError(t, os.Symlink("gone", filepath.Join(f.src, "broken")))
	writeTree(t, f.dst, map[string]string{"existing.svs": "e"})

	o := newOrchestrator(t, transfer.Options{})

	out := o.Transfer(ctx, f.task())
	require.Equal(t, transfer.Success, out.Kind, out.String())
	assert.Equal(t, 3, out.Stats.Moved)
	assert.Equal(t, map[string]string{
		"a.svs":        "aaaa",
		"broken":       "-> gone",
		"existing.svs": "e",
		"z.svs":        "zzzz",
	}, readTree(t, f.dst))
	assert.Empty(t, readTree(t, f.src))

	again := o.Transfer(ctx, f.task())
	assert.Equal(t, transfer.Success, again.Kind, again.String())
	assert.Equal(t, 0, again.Stats.Moved)
}

func TestTransferNoDataLoss(t *testing.T) {
	ctx := testCtx(t)
	f := newFixture(t, caseFiles)
	writeTree(t, f.dst, map[string]string{"c.svs": "different size here"})

	// the rename of one file fails fatally half way through
	faulty := fsystest.New(nil).Inject(fsystest.Fault{Op: fsystest.OpRename, Match: "info.json", Err: unix.EACCES})
	out := newOrchestrator(t, transfer.Options{FS: faulty}).Transfer(ctx, f.task())
	require.Equal(t, transfer.Failed, out.Kind)

	src := readTree(t, f.src)
	dst := readTree(t, f.dst)
	for rel, content := range caseFiles {
		got, inSrc := src[rel]
		if !inSrc {
			got = dst[rel]
		}
		assert.Equal(t, content, got, "%s must survive in source or destination", rel)
	}
}

func TestTransferRetries(t *testing.T) {
	tests := []struct {
		name        string
		maxRetries  int
		times       int
		wantKind    transfer.Kind
		wantRetries int
		wantRenames int
	}{
		{name: "recovers_within_budget", maxRetries: 3, times: 2, wantKind: transfer.Success, wantRetries: 2, wantRenames: 3},
		{name: "budget_exhausted", maxRetries: 2, times: 0, wantKind: transfer.Failed, wantRetries: 2, wantRenames: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testCtx(t)
			f := newFixture(t, map[string]string{"a.svs": "a", "b.svs": "b"})
			require.NoError(t, os.MkdirAll(f.dst, 0o755))

			faulty := fsystest.New(nil).Inject(fsystest.Fault{Op: fsystest.OpRename, Match: "b.svs", Err: unix.ESTALE, Times: tt.times})
			rec := status.NewRecorder()
			out := newOrchestrator(t, transfer.Options{FS: faulty, Sink: rec, Policy: fastPolicy(tt.maxRetries)}).Transfer(ctx, f.task())

			require.Equal(t, tt.wantKind, out.Kind, out.String())
			// one rename for a.svs plus every attempt on b.svs
			assert.Equal(t, 1+tt.wantRenames, faulty.Calls(fsystest.OpRename))

			retries := rec.Filter(status.PhaseRetry, status.ActionRetrying)
			require.Len(t, retries, tt.wantRetries)
			for i, ev := range retries {
				assert.Equal(t, "b.svs", ev.Path)
				assert.Equal(t, f.src, ev.Folder)
				assert.Equal(t, i+1, ev.Attempt)
				assert.Equal(t, tt.maxRetries, ev.MaxRetries)
			}

			if tt.wantKind == transfer.Failed {
				assert.ErrorIs(t, out.Err, retry.ErrRetriesExhausted)
				assert.ErrorIs(t, out.Err, unix.ESTALE)
				assert.True(t, exists(filepath.Join(f.src, "b.svs")))
			}
		})
	}
}

func TestTransferFatalErrorThenResume(t *testing.T) {
	ctx := testCtx(t)
	f := newFixture(t, caseFiles)
	require.NoError(t, os.MkdirAll(f.dst, 0o755))

	faulty := fsystest.New(nil).Inject(fsystest.Fault{Op: fsystest.OpRename, Match: "b.svs", Err: unix.EACCES})
	rec := status.NewRecorder()
	out := newOrchestrator(t, transfer.Options{FS: faulty, Sink: rec}).Transfer(ctx, f.task())

	require.Equal(t, transfer.Failed, out.Kind)
	assert.Equal(t, transfer.StateMerge, out.Via)
	assert.ErrorIs(t, out.Err, unix.EACCES)
	assert.Equal(t, 1, out.Stats.Moved, "a.svs went before the failure")
	assert.Empty(t, rec.Filter(status.PhaseRetry, status.ActionRetrying), "fatal errors are not retried")
	assert.True(t, exists(filepath.Join(f.src, "c.svs")), "merge stops at the first fatal error")

	failed := rec.Filter(status.PhaseFile, status.ActionFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "b.svs", failed[0].Path)

	resumed := newOrchestrator(t, transfer.Options{}).Transfer(ctx, f.task())
	require.Equal(t, transfer.Success, resumed.Kind, resumed.String())
	assert.Equal(t, len(caseFiles)-1, resumed.Stats.Moved)
	assert.Equal(t, caseFiles, readTree(t, f.dst))
}

func TestTransferCrossDeviceFallsBackToMerge(t *testing.T) {
	ctx := testCtx(t)
	f := newFixture(t, caseFiles)

	faulty := fsystest.New(nil).Inject(fsystest.Fault{Op: fsystest.OpRename, Match: f.src, Err: unix.EXDEV})
	out := newOrchestrator(t, transfer.Options{FS: faulty, PruneEmpty: true}).Transfer(ctx, f.task())

	require.Equal(t, transfer.Success, out.Kind, out.String())
	assert.Equal(t, transfer.StateMerge, out.Via)
	assert.False(t, out.Stats.TreeMoved)
	assert.Equal(t, len(caseFiles), out.Stats.Moved)
	assert.Equal(t, caseFiles, readTree(t, f.dst))
	assert.False(t, exists(f.src), "emptied source pruned")
}

func TestTransferExcludes(t *testing.T) {
	ctx := testCtx(t)
	files := map[string]string{
		"a.svs":          "a",
		".DS_Store":      "junk",
		"meta/.DS_Store": "junk",
		"cache/tile.tmp": "tmp",
		"meta/info.json": "{}",
	}
	f := newFixture(t, files)

	rec := status.NewRecorder()
	out := newOrchestrator(t, transfer.Options{
		Sink:       rec,
		Excludes:   []string{".DS_Store", "cache/"},
		PruneEmpty: true,
	}).Transfer(ctx, f.task())

	require.Equal(t, transfer.Success, out.Kind, out.String())
	assert.Equal(t, transfer.StateMerge, out.Via, "excludes rule out a whole-tree rename")
	assert.Equal(t, 3, out.Stats.Excluded)
	assert.Equal(t, map[string]string{"a.svs": "a", "meta/info.json": "{}"}, readTree(t, f.dst))
	assert.Equal(t, map[string]string{
		".DS_Store":      "junk",
		"meta/.DS_Store": "junk",
		"cache/tile.tmp": "tmp",
	}, readTree(t, f.src))
	assert.Len(t, rec.Filter(status.PhaseFile, status.ActionExcluded), 2)
	assert.Len(t, rec.Filter(status.PhaseDir, status.ActionExcluded), 1)
}

func TestTransferUnlistableSubtree(t *testing.T) {
	ctx := testCtx(t)
	f := newFixture(t, map[string]string{
		"a.svs":        "a",
		"locked/b.svs": "b",
		"z/c.svs":      "c",
	})
	require.NoError(t, os.MkdirAll(f.dst, 0o755))

	faulty := fsystest.New(nil).Inject(fsystest.Fault{Op: fsystest.OpReadDir, Match: "locked", Err: unix.EACCES})
	out := newOrchestrator(t, transfer.Options{FS: faulty}).Transfer(ctx, f.task())

	require.Equal(t, transfer.Failed, out.Kind)
	var listErr *walker.ListError
	require.ErrorAs(t, out.Err, &listErr)
	assert.Equal(t, "locked", listErr.RelPath)

	assert.Equal(t, 2, out.Stats.Moved, "siblings still move")
	assert.Equal(t, map[string]string{"locked/b.svs": "b"}, readTree(t, f.src))
}

func TestTransferCancelled(t *testing.T) {
	f := newFixture(t, map[string]string{"a.svs": "a", "b.svs": "b", "c.svs": "c"})
	require.NoError(t, os.MkdirAll(f.dst, 0o755))

	ctx, cancel := context.WithCancel(testCtx(t))
	defer cancel()

	// cancel as soon as the first file lands
	sink := status.SinkFunc(func(_ context.Context, ev status.Event) {
		if ev.Action == status.ActionMoved {
			cancel()
		}
	})

	out := newOrchestrator(t, transfer.Options{Sink: sink}).Transfer(ctx, f.task())

	require.Equal(t, transfer.Failed, out.Kind)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, 1, out.Stats.Moved)
	assert.Equal(t, map[string]string{"b.svs": "b", "c.svs": "c"}, readTree(t, f.src))
	assert.Equal(t, map[string]string{"a.svs": "a"}, readTree(t, f.dst))
}

func TestTransferPrune(t *testing.T) {
	tests := []struct {
		name       string
		prune      bool
		wantSource bool
	}{
		{name: "enabled", prune: true, wantSource: false},
		{name: "disabled", prune: false, wantSource: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testCtx(t)
			f := newFixture(t, caseFiles)
			require.NoError(t, os.MkdirAll(f.dst, 0o755))

			rec := status.NewRecorder()
			out := newOrchestrator(t, transfer.Options{Sink: rec, PruneEmpty: tt.prune}).Transfer(ctx, f.task())
			require.Equal(t, transfer.Success, out.Kind, out.String())

			assert.Equal(t, tt.wantSource, exists(f.src))
			assert.Empty(t, readTree(t, f.src), "no files left behind either way")
			if tt.prune {
				// meta/deep, meta, then the folder itself
				assert.Len(t, rec.Filter(status.PhasePrune, status.ActionRemoved), 3)
			}
		})
	}
}

func TestTransferDestinationStatFails(t *testing.T) {
	ctx := testCtx(t)
	f := newFixture(t, caseFiles)

	faulty := fsystest.New(nil).Inject(fsystest.Fault{Op: fsystest.OpLstat, Match: f.dst, Err: unix.EACCES})
	out := newOrchestrator(t, transfer.Options{FS: faulty}).Transfer(ctx, f.task())

	require.Equal(t, transfer.Failed, out.Kind)
	assert.Equal(t, transfer.StateStart, out.Via)
	assert.Equal(t, caseFiles, readTree(t, f.src), "nothing touched")
}

func TestNewOrchestratorRejectsBadPattern(t *testing.T) {
	_, err := transfer.NewOrchestrator(transfer.Options{FS: fsys.OS{}, Excludes: []string{"[unclosed"}})
	require.Error(t, err)
}

func TestTaskDestination(t *testing.T) {
	task := transfer.Task{Source: "/data/local/case01/", DestinationRoot: "/mnt/share"}
	assert.Equal(t, filepath.Join("/mnt/share", "case01"), task.Destination())
}
