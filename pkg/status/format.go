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
	"fmt"
)

// FileFormatter defines how events and progress are phrased for humans
type FileFormatter interface {
	// FormatEvent formats a single event message
	FormatEvent(ev Event) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatEvent formats an event message with emojis
func (f *DefaultFileFormatter) FormatEvent(ev Event) string {
	target := ev.Path
	if target == "" {
		target = ev.Folder
	}

	switch ev.Action {
	case ActionStarted:
		return fmt.Sprintf("🚚 Transferring %s", target)
	case ActionCreated:
		return fmt.Sprintf("📁 Created %s", target)
	case ActionMoved:
		return fmt.Sprintf("✨ Moved %s", target)
	case ActionDuplicate:
		return fmt.Sprintf("🗑️  Deleted duplicate source %s", target)
	case ActionConflict:
		return fmt.Sprintf("⚠️  Skipped %s: %s", target, ev.Reason)
	case ActionExcluded:
		return fmt.Sprintf("🙈 Excluded %s", target)
	case ActionRetrying:
		return fmt.Sprintf("🔁 Retry %d/%d for %s in %s", ev.Attempt, ev.MaxRetries, target, ev.Delay)
	case ActionSkipped:
		return fmt.Sprintf("⏭️  Skipped %s: %s", target, ev.Reason)
	case ActionFailed:
		return fmt.Sprintf("❌ Failed %s: %s", target, ev.Reason)
	case ActionComplete:
		return fmt.Sprintf("✅ Completed %s", target)
	case ActionRemoved:
		return fmt.Sprintf("🧹 Removed empty %s", target)
	default:
		return fmt.Sprintf("👍 %s %s", ev.Action, target)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
