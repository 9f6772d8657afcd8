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

package log

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/netmove/pkg/status"
)

// 🎯 Logger prints the human progress stream and mirrors every event to zerolog
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	formatter status.FileFormatter
	mu        sync.Mutex
}

var _ status.Sink = (*Logger)(nil)

// 🏭 New creates a new logger writing lines to console and records to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:      zlog,
		console:   console,
		formatter: status.NewDefaultFileFormatter(),
	}
}

// 📣 Emit prints ev and records it
func (l *Logger) Emit(ctx context.Context, ev status.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Phase {
	case status.PhaseBatch:
		l.batchLine(ev)
	case status.PhaseFolder:
		l.folderLine(ev)
	case status.PhaseMove:
		fmt.Fprintf(l.console, "  %s %s\n", color.New(color.Faint).Sprint("↪"), color.New(color.Faint).Sprint("direct move to "+ev.Reason))
	case status.PhaseMerge:
		fmt.Fprintf(l.console, "  %s %s\n", color.New(color.Faint).Sprint("↪"), color.New(color.Faint).Sprint("merging into "+ev.Reason))
	default:
		fmt.Fprintln(l.console, status.FormatEventLine(ev))
	}

	l.record(ev)
}

func (l *Logger) batchLine(ev status.Event) {
	switch ev.Action {
	case status.ActionStarted:
		name := color.New(color.Bold, color.FgCyan).Sprint("netmove")
		fmt.Fprintf(l.console, "\n%s %s\n", name, color.New(color.Faint).Sprint("• moving folders into "+ev.Reason))
	case status.ActionComplete:
		fmt.Fprintf(l.console, "\n%s %s\n", color.New(color.Bold).Sprint("done:"), ev.Reason)
	}
}

func (l *Logger) folderLine(ev status.Event) {
	switch ev.Action {
	case status.ActionStarted:
		fmt.Fprintf(l.console, "\n[moving %s]\n", color.New(color.FgCyan).Sprint(ev.Folder))
		fmt.Fprintf(l.console, "%s %s %s %s\n",
			color.New(color.FgMagenta).Sprint("◆"),
			color.New(color.Bold).Sprint(filepath.Base(ev.Folder)),
			color.New(color.Faint).Sprint("•"),
			color.New(color.FgYellow).Sprint(ev.Reason))
	case status.ActionComplete:
		fmt.Fprintf(l.console, "%s %s\n", l.formatter.FormatEvent(ev), color.New(color.Faint).Sprint("("+ev.Reason+")"))
	default:
		fmt.Fprintln(l.console, l.formatter.FormatEvent(ev))
	}
}

func (l *Logger) record(ev status.Event) {
	var e *zerolog.Event
	switch ev.Action {
	case status.ActionFailed:
		e = l.zlog.Error().Err(ev.Err)
	case status.ActionRetrying, status.ActionConflict, status.ActionSkipped:
		e = l.zlog.Warn()
	case status.ActionStarted, status.ActionComplete:
		e = l.zlog.Info()
	default:
		e = l.zlog.Debug()
	}

	e = e.Str("phase", string(ev.Phase)).Str("action", string(ev.Action))
	if ev.Folder != "" {
		e = e.Str("folder", ev.Folder)
	}
	if ev.Path != "" {
		e = e.Str("path", ev.Path)
	}
	if ev.Reason != "" {
		e = e.Str("reason", ev.Reason)
	}
	if ev.Bytes > 0 {
		e = e.Int64("bytes", ev.Bytes)
	}
	if ev.Action == status.ActionRetrying {
		e = e.Int("attempt", ev.Attempt).Int("max_retries", ev.MaxRetries).Dur("delay", ev.Delay)
	}
	e.Msg("transfer event")
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Progress logs a folder count line, for runs without a progress bar
func (l *Logger) Progress(done, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, color.New(color.Faint).Sprint(l.formatter.FormatProgress(done, total)))
	l.zlog.Debug().Int("done", done).Int("total", total).Msg("batch progress")
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Print writes pre-rendered text, such as a table, as is
func (l *Logger) Print(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, text)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
