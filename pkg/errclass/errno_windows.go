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

//go:build windows

package errclass

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// Win32 codes seen on SMB shares when the connection drops. ERROR_UNEXP_NET_ERR
// is the "An unexpected network error occurred" failure.
var transientErrnos = map[syscall.Errno]struct{}{
	windows.ERROR_BAD_NETPATH:         {},
	windows.ERROR_NETWORK_BUSY:        {},
	windows.ERROR_DEV_NOT_EXIST:       {},
	windows.ERROR_UNEXP_NET_ERR:       {},
	windows.ERROR_NETNAME_DELETED:     {},
	windows.ERROR_SEM_TIMEOUT:         {},
	windows.ERROR_NETWORK_UNREACHABLE: {},
	windows.ERROR_HOST_UNREACHABLE:    {},
	windows.ERROR_CONNECTION_ABORTED:  {},
	windows.WSAECONNRESET:             {},
	windows.WSAECONNABORTED:           {},
	windows.WSAETIMEDOUT:              {},
}
