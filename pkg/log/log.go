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
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent entry lines
	nameWidth   = 35 // Base width for entry name
	roleWidth   = 15 // Width for entry role
	statusWidth = 15 // Width for status text
)

// 🎯 EntryOperation represents one archive entry for logging
type EntryOperation struct {
	Path          string // Name inside the archive
	Role          string // File role (opaque/compiled/source/preamble)
	Status        string // Operation status
	IsTransformed bool   // Whether the content was rewritten
	IsSkipped     bool   // Whether the entry was left out
	Changes       int    // Number of transform rules that fired
}

// 📦 ArchiveOperation represents a whole pack run for logging
type ArchiveOperation struct {
	Source      string // Project root
	Destination string // Output file
	Format      string // mmip or zip
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	currentOp *ArchiveOperation
	entries   []EntryOperation
}

// 🏭 New creates a new logger. Console lines are mirrored into zlog at debug
// level so the structured log carries the same story.
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔇 Discard returns a logger that prints nothing
func Discard() *Logger {
	return New(io.Discard, zerolog.Nop())
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, or a discarding logger when
// none was attached.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return Discard()
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatEntryOperation formats an entry operation for display
func (l *Logger) formatEntryOperation(op EntryOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsSkipped:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsTransformed:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '✓'
		symbolColor = color.FgGreen
	}

	var roleColor color.Attribute
	switch op.Role {
	case "compiled":
		roleColor = color.FgMagenta
	case "source":
		roleColor = color.FgCyan
	case "preamble":
		roleColor = color.FgYellow
	default:
		roleColor = color.FgWhite
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(roleColor).Sprint(fmt.Sprintf("%-*s", roleWidth, op.Role)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogEntryOperation logs an archive entry
func (l *Logger) LogEntryOperation(ctx context.Context, op EntryOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, op)

	fmt.Fprintln(l.console, l.formatEntryOperation(op))

	l.zlog.Debug().
		Str("entry", op.Path).
		Str("role", op.Role).
		Str("status", op.Status).
		Bool("is_transformed", op.IsTransformed).
		Bool("is_skipped", op.IsSkipped).
		Int("changes", op.Changes).
		Msg("archive entry")
}

// 📝 StartArchiveOperation starts a new pack run
func (l *Logger) StartArchiveOperation(ctx context.Context, op ArchiveOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.entries = nil

	fmt.Fprintf(l.console, "[packing %s]\n",
		color.New(color.FgCyan).Sprint(op.Source))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Destination),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Format))

	l.zlog.Debug().
		Str("source", op.Source).
		Str("destination", op.Destination).
		Str("format", op.Format).
		Msg("starting archive operation")
}

// 📝 EndArchiveOperation ends the current pack run and returns the number
// of entries logged during it.
func (l *Logger) EndArchiveOperation(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return 0
	}

	written := 0
	for _, e := range l.entries {
		if !e.IsSkipped {
			written++
		}
	}

	l.zlog.Debug().
		Str("destination", l.currentOp.Destination).
		Int("entries", written).
		Msg("archive operation complete")

	l.currentOp = nil
	l.entries = nil
	return written
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("packmmip")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Debug().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Debug().Msg(msg)
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
	l.zlog.Debug().Msg(msg)
}

// 📝 Plain logs a message without decoration, used for compiler diagnostics
func (l *Logger) Plain(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, msg)
	l.zlog.Debug().Msg(msg)
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
