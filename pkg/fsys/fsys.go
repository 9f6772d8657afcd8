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

// Package fsys is the filesystem contract consumed by the transfer engine.
//
// Source and destination are both reached through FS. The destination may be a
// network mount, so every method returns the raw *fs.PathError or *os.LinkError
// from the OS untouched: classification downstream inspects those error codes.
package fsys

import (
	"io/fs"
	"os"
	"time"
)

// 💾 FS is the set of filesystem operations the engine relies on
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	MkdirAll(name string, perm fs.FileMode) error
	Rename(oldname, newname string) error
	Remove(name string) error
	Open(name string) (File, error)
	OpenFile(name string, flag int, perm fs.FileMode) (File, error)
	Chtimes(name string, atime, mtime time.Time) error
	Readlink(name string) (string, error)
	Symlink(oldname, newname string) error
}

// 📄 File is the subset of *os.File used when a move has to copy bytes
type File interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	Sync() error
	Stat() (fs.FileInfo, error)
}

// 🖥️ OS implements FS on the host filesystem
type OS struct{}

var _ FS = OS{}

func (OS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }
func (OS) Lstat(name string) (fs.FileInfo, error) { return os.Lstat(name) }
func (OS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (OS) MkdirAll(name string, perm fs.FileMode) error { return os.MkdirAll(name, perm) }
func (OS) Rename(oldname, newname string) error { return os.Rename(oldname, newname) }
func (OS) Remove(name string) error { return os.Remove(name) }
func (OS) Readlink(name string) (string, error) { return os.Readlink(name) }
func (OS) Symlink(oldname, newname string) error { return os.Symlink(oldname, newname) }

func (OS) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

func (OS) Open(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (OS) OpenFile(name string, flag int, perm fs.FileMode) (File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// 🔍 Exists reports whether name exists. Symlinks are not followed, so a
// dangling link exists. Errors other than "not exist" are returned so a flaky
// mount is not mistaken for an absent path.
func Exists(fsys FS, name string) (bool, error) {
	_, err := fsys.Lstat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
