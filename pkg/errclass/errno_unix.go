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

package errclass

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// errnos a remote mount (NFS, SMB, sshfs) reports when the link drops
var transientErrnos = map[syscall.Errno]struct{}{
	unix.ESTALE:       {},
	unix.ECONNRESET:   {},
	unix.ECONNABORTED: {},
	unix.ECONNREFUSED: {},
	unix.ETIMEDOUT:    {},
	unix.EHOSTDOWN:    {},
	unix.EHOSTUNREACH: {},
	unix.ENETDOWN:     {},
	unix.ENETUNREACH:  {},
	unix.ENETRESET:    {},
	unix.ENOTCONN:     {},
	unix.EPIPE:        {},
	unix.EAGAIN:       {},
	unix.EINTR:        {},
}
