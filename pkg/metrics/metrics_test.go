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

package metrics_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/netmove/pkg/metrics"
	"github.com/walteh/netmove/pkg/status"
)

func TestCollectorTextfile(t *testing.T) {
	ctx := context.Background()
	c := metrics.New()

	events := []status.Event{
		{Phase: status.PhaseBatch, Action: status.ActionStarted},
		{Folder: "/src/a", Phase: status.PhaseFolder, Action: status.ActionStarted},
		{Folder: "/src/a", Path: "1.svs", Phase: status.PhaseFile, Action: status.ActionMoved, Bytes: 100},
		{Folder: "/src/a", Path: "2.svs", Phase: status.PhaseRetry, Action: status.ActionRetrying, Attempt: 1},
		{Folder: "/src/a", Path: "2.svs", Phase: status.PhaseFile, Action: status.ActionMoved, Bytes: 50},
		{Folder: "/src/a", Path: "3.svs", Phase: status.PhaseFile, Action: status.ActionDuplicate, Bytes: 10},
		{Folder: "/src/a", Path: "4.svs", Phase: status.PhaseFile, Action: status.ActionConflict},
		{Folder: "/src/a", Path: "sub", Phase: status.PhaseDir, Action: status.ActionCreated},
		{Folder: "/src/a", Phase: status.PhaseFolder, Action: status.ActionComplete},
		{Folder: "/src/b", Phase: status.PhaseFolder, Action: status.ActionSkipped},
		{Phase: status.PhaseBatch, Action: status.ActionComplete},
	}
	for _, ev := range events {
		c.Emit(ctx, ev)
	}

	path := filepath.Join(t.TempDir(), "netmove.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	for _, want := range []string{
		`netmove_files_total{action="moved"} 2`,
		`netmove_files_total{action="duplicate-deleted"} 1`,
		`netmove_files_total{action="conflict-skipped"} 1`,
		`netmove_bytes_moved_total 150`,
		`netmove_retries_total 1`,
		`netmove_folders_total{outcome="complete"} 1`,
		`netmove_folders_total{outcome="skipped"} 1`,
		`# TYPE netmove_last_batch_timestamp_seconds gauge`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, `outcome="failed"`)
}

func TestCollectorWriteTextfileBadPath(t *testing.T) {
	c := metrics.New()
	err := c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "netmove.prom"))
	require.Error(t, err)
}

func TestCollectorRegistryGathers(t *testing.T) {
	c := metrics.New()
	c.Emit(context.Background(), status.Event{Phase: status.PhaseRetry, Action: status.ActionRetrying})

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["netmove_retries_total"])
	assert.True(t, names["netmove_bytes_moved_total"])
}
