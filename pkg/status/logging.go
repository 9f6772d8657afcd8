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
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 40 // Base width for the path
	actionWidth = 18 // Width for the action text
)

// 🎯 FormatEventLine formats a file-level event as an aligned console line
func FormatEventLine(ev Event) string {
	var prefix string
	switch ev.Action {
	case ActionMoved, ActionCreated:
		prefix = color.GreenString("✓")
	case ActionDuplicate, ActionRemoved:
		prefix = color.CyanString("=")
	case ActionConflict, ActionExcluded, ActionSkipped:
		prefix = color.YellowString("-")
	case ActionRetrying:
		prefix = color.BlueString("⟳")
	case ActionFailed:
		prefix = color.RedString("✗")
	default:
		prefix = color.HiBlackString("•")
	}

	namePart := fmt.Sprintf("%-*s", nameWidth, ev.Path)
	actionPart := fmt.Sprintf("%-*s", actionWidth, string(ev.Action))

	line := fmt.Sprintf("%s%s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		namePart,
		actionPart,
	)
	if ev.Reason != "" {
		line += " " + color.HiBlackString(ev.Reason)
	}
	return strings.TrimRight(line, " ")
}
