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

package status

import (
	"context"
	"sync"
	"time"
)

// 🧭 Phase is the stage of a transfer an event belongs to
type Phase string

const (
	PhaseBatch  Phase = "batch"
	PhaseFolder Phase = "folder"
	PhaseMove   Phase = "direct-move"
	PhaseMerge  Phase = "merge"
	PhaseDir    Phase = "directory"
	PhaseFile   Phase = "file"
	PhaseRetry  Phase = "retry"
	PhasePrune  Phase = "prune"
)

// 🎬 Action is what happened
type Action string

const (
	ActionStarted   Action = "started"
	ActionCreated   Action = "created"
	ActionMoved     Action = "moved"
	ActionDuplicate Action = "duplicate-deleted"
	ActionConflict  Action = "conflict-skipped"
	ActionExcluded  Action = "excluded"
	ActionRetrying  Action = "retrying"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
	ActionComplete  Action = "complete"
	ActionRemoved   Action = "removed"
)

// 📣 Event is a structured progress record
type Event struct {
	Folder string // source folder being transferred
	Path   string // path relative to Folder, empty for folder-level events
	Phase  Phase
	Action Action
	Reason string
	Bytes  int64

	// set on retry events
	Attempt    int
	MaxRetries int
	Delay      time.Duration

	Err error
}

// 🔌 Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

type multi []Sink

func (m multi) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}

// Multi fans events out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// 📼 Recorder keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns recorded events matching phase and action. An empty value
// matches anything.
func (r *Recorder) Filter(phase Phase, action Action) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if phase != "" && ev.Phase != phase {
			continue
		}
		if action != "" && ev.Action != action {
			continue
		}
		out = append(out, ev)
	}
	return out
}
