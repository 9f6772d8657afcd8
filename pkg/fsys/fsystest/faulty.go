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

// Package fsystest provides a fault-injecting fsys.FS for tests.
package fsystest

import (
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/walteh/netmove/pkg/fsys"
)

// Op names an FS method.
type Op string

const (
	OpStat     Op = "stat"
	OpLstat    Op = "lstat"
	OpReadDir  Op = "readdir"
	OpMkdirAll Op = "mkdirall"
	OpRename   Op = "rename"
	OpRemove   Op = "remove"
	OpOpen     Op = "open"
	OpOpenFile Op = "openfile"
	OpChtimes  Op = "chtimes"
	OpReadlink Op = "readlink"
	OpSymlink  Op = "symlink"
)

// 💥 Fault injects Err into calls of Op whose first path argument contains
// Match. Times <= 0 means fail forever.
type Fault struct {
	Op    Op
	Match string
	Err   error
	Times int

	hits int
}

// 🧪 Faulty wraps an fsys.FS and fails selected calls
type Faulty struct {
	Base fsys.FS

	mu     sync.Mutex
	faults []*Fault
	calls  map[Op]int
}

var _ fsys.FS = (*Faulty)(nil)

// New wraps base. A nil base uses the host filesystem.
func New(base fsys.FS) *Faulty {
	if base == nil {
		base = fsys.OS{}
	}
	return &Faulty{Base: base, calls: map[Op]int{}}
}

// Inject registers a fault and returns the receiver for chaining.
func (f *Faulty) Inject(fault Fault) *Faulty {
	f.mu.Lock()
	defer f.mu.Unlock()
	fc := fault
	f.faults = append(f.faults, &fc)
	return f
}

// Calls returns how many times op was invoked, including failed calls.
func (f *Faulty) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Faulty) check(op Op, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	for _, fault := range f.faults {
		if fault.Op != op || !strings.Contains(name, fault.Match) {
			continue
		}
		if fault.Times > 0 && fault.hits >= fault.Times {
			continue
		}
		fault.hits++
		return &fs.PathError{Op: string(op), Path: name, Err: fault.Err}
	}
	return nil
}

func (f *Faulty) Stat(name string) (fs.FileInfo, error) {
	if err := f.check(OpStat, name); err != nil {
		return nil, err
	}
	return f.Base.Stat(name)
}

func (f *Faulty) Lstat(name string) (fs.FileInfo, error) {
	if err := f.check(OpLstat, name); err != nil {
		return nil, err
	}
	return f.Base.Lstat(name)
}

func (f *Faulty) ReadDir(name string) ([]fs.DirEntry, error) {
	if err := f.check(OpReadDir, name); err != nil {
		return nil, err
	}
	return f.Base.ReadDir(name)
}

func (f *Faulty) MkdirAll(name string, perm fs.FileMode) error {
	if err := f.check(OpMkdirAll, name); err != nil {
		return err
	}
	return f.Base.MkdirAll(name, perm)
}

func (f *Faulty) Rename(oldname, newname string) error {
	if err := f.check(OpRename, oldname); err != nil {
		return err
	}
	return f.Base.Rename(oldname, newname)
}

func (f *Faulty) Remove(name string) error {
	if err := f.check(OpRemove, name); err != nil {
		return err
	}
	return f.Base.Remove(name)
}

func (f *Faulty) Open(name string) (fsys.File, error) {
	if err := f.check(OpOpen, name); err != nil {
		return nil, err
	}
	return f.Base.Open(name)
}

func (f *Faulty) OpenFile(name string, flag int, perm fs.FileMode) (fsys.File, error) {
	if err := f.check(OpOpenFile, name); err != nil {
		return nil, err
	}
	return f.Base.OpenFile(name, flag, perm)
}

func (f *Faulty) Chtimes(name string, atime, mtime time.Time) error {
	if err := f.check(OpChtimes, name); err != nil {
		return err
	}
	return f.Base.Chtimes(name, atime, mtime)
}

func (f *Faulty) Readlink(name string) (string, error) {
	if err := f.check(OpReadlink, name); err != nil {
		return "", err
	}
	return f.Base.Readlink(name)
}

func (f *Faulty) Symlink(oldname, newname string) error {
	if err := f.check(OpSymlink, newname); err != nil {
		return err
	}
	return f.Base.Symlink(oldname, newname)
}
