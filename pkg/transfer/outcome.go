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
	"fmt"
	"path/filepath"
)

// 📦 Task is one source folder headed for a destination root
type Task struct {
	Source          string
	DestinationRoot string
}

// Destination is DestinationRoot joined with the source folder's base name.
func (t Task) Destination() string {
	return filepath.Join(t.DestinationRoot, filepath.Base(filepath.Clean(t.Source)))
}

// 🏁 Kind is the terminal result class of a transfer
type Kind int

const (
	Success Kind = iota
	Skipped
	Failed
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// 📊 Stats counts what a folder transfer did
type Stats struct {
	Moved       int
	Duplicates  int
	Conflicts   int
	Excluded    int
	Directories int
	Bytes       int64
	// TreeMoved is set when the whole folder went over in a single rename.
	TreeMoved bool
}

func (s Stats) String() string {
	if s.TreeMoved {
		return "moved as a whole"
	}
	return fmt.Sprintf("%d moved, %d duplicates, %d conflicts, %d excluded", s.Moved, s.Duplicates, s.Conflicts, s.Excluded)
}

// 📋 Outcome is the immutable result of a transfer
type Outcome struct {
	Kind   Kind
	Reason string
	Err    error
	// Via is the path the state machine took (DirectMove or Merge); StateStart
	// when the folder was never started.
	Via   State
	Stats Stats
}

func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Kind.String()
	}
	return fmt.Sprintf("%s: %s", o.Kind, o.Reason)
}

// Succeeded builds a Success outcome.
func Succeeded(via State, stats Stats) Outcome {
	return Outcome{Kind: Success, Via: via, Stats: stats}
}

// Skip builds a Skipped outcome.
func Skip(reason string) Outcome {
	return Outcome{Kind: Skipped, Reason: reason}
}

// Fail builds a Failed outcome whose reason is err's message.
func Fail(via State, stats Stats, err error) Outcome {
	return Outcome{Kind: Failed, Reason: err.Error(), Err: err, Via: via, Stats: stats}
}
