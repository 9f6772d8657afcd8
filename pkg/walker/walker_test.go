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

package walker_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/netmove/pkg/fsys"
	"github.com/walteh/netmove/pkg/fsys/fsystest"
	"github.com/walteh/netmove/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// 🧪 buildTree creates files (with content) and empty directories (trailing /)
func buildTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if p[len(p)-1] == '/' {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(p), 0o644))
	}
}

type walked struct {
	Path     string
	Kind     walker.Kind
	Excluded bool
}

func collect(t *testing.T, w *walker.Walker, root string) ([]walked, []error) {
	t.Helper()
	var (
		out  []walked
		errs []error
	)
	for entry, err := range w.Walk(root) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, walked{Path: filepath.ToSlash(entry.RelPath), Kind: entry.Kind, Excluded: entry.Excluded})
	}
	return out, errs
}

func TestWalkOrder(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root,
		"b.txt",
		"a/1.svs",
		"a/deep/2.svs",
		"c/",
	)

	w, err := walker.New(fsys.OS{}, nil)
	require.NoError(t, err)

	got, errs := collect(t, w, root)
	require.Empty(t, errs)
	assert.Equal(t, []walked{
		{Path: "a", Kind: walker.Directory},
		{Path: "a/1.svs", Kind: walker.File},
		{Path: "a/deep", Kind: walker.Directory},
		{Path: "a/deep/2.svs", Kind: walker.File},
		{Path: "b.txt", Kind: walker.File},
		{Path: "c", Kind: walker.Directory},
	}, got)
}

func TestWalkExcludes(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root,
		"slide.mrxs",
		".DS_Store",
		"data/.DS_Store",
		"data/Data0001.dat",
		"cache/tile.png",
	)

	w, err := walker.New(fsys.OS{}, []string{".DS_Store", "cache/"})
	require.NoError(t, err)

	got, errs := collect(t, w, root)
	require.Empty(t, errs)
	assert.Equal(t, []walked{
		{Path: ".DS_Store", Kind: walker.File, Excluded: true},
		{Path: "cache", Kind: walker.Directory, Excluded: true},
		{Path: "data", Kind: walker.Directory},
		{Path: "data/.DS_Store", Kind: walker.File, Excluded: true},
		{Path: "data/Data0001.dat", Kind: walker.File},
		{Path: "slide.mrxs", Kind: walker.File},
	}, got)
	assert.True(t, w.HasExcludes())
}

func TestWalkInvalidPattern(t *testing.T) {
	_, err := walker.New(fsys.OS{}, []string{"[unclosed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

func TestWalkUnlistableSubtreeKeepsSiblings(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root,
		"locked/secret.bin",
		"open/ok.bin",
	)

	faulty := fsystest.New(nil).Inject(fsystest.Fault{
		Op:    fsystest.OpReadDir,
		Match: "locked",
		Err:   fs.ErrPermission,
	})
	w, err := walker.New(faulty, nil)
	require.NoError(t, err)

	got, errs := collect(t, w, root)
	require.Len(t, errs, 1)

	var listErr *walker.ListError
	require.True(t, errors.As(errs[0], &listErr))
	assert.Equal(t, "locked", listErr.RelPath)
	assert.ErrorIs(t, errs[0], fs.ErrPermission)

	assert.Equal(t, []walked{
		{Path: "locked", Kind: walker.Directory},
		{Path: "open", Kind: walker.Directory},
		{Path: "open/ok.bin", Kind: walker.File},
	}, got)
}

func TestWalkStopsEarly(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, "a/1", "a/2", "b/3")

	faulty := fsystest.New(nil)
	w, err := walker.New(faulty, nil)
	require.NoError(t, err)

	for entry, err := range w.Walk(root) {
		require.NoError(t, err)
		if entry.RelPath == "a" {
			break
		}
	}
	assert.Equal(t, 1, faulty.Calls(fsystest.OpReadDir), "only the root should have been listed")
}

func TestWalkMissingRoot(t *testing.T) {
	w, err := walker.New(fsys.OS{}, nil)
	require.NoError(t, err)

	got, errs := collect(t, w, filepath.Join(t.TempDir(), "nope"))
	assert.Empty(t, got)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], fs.ErrNotExist)
}
