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

/*
Package status carries structured progress events out of the transfer engine.

	+-------------+      +-------------+
	|  transfer   | ---> |    Sink     |
	|   batch     |      |  (Emit ev)  |
	+-------------+      +------+------+
	                            |
	        +-------------------+-------------------+
	        |                   |                   |
	  +-----+-----+       +-----+-----+       +-----+-----+
	  |  console  |       |  metrics  |       |  Recorder |
	  | (pkg/log) |       | (counters)|       |  (tests)  |
	  +-----------+       +-----------+       +-----------+

🎯 Purpose:
- One Event per folder start/finish, per directory created, per file moved,
  deleted as duplicate, skipped on conflict, or excluded, and per retry
- Every event names the folder, the relative path, the phase and the action
- Tests assert on Recorder contents instead of parsing console text

🤝 Interfaces:
- Sink: receives events, must be safe for concurrent use
- FileFormatter: phrases events for humans
*/
package status
