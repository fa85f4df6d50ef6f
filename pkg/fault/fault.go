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

// Package fault tags the failures of a pack operation so callers can tell a
// declined prompt from a broken disk without string matching.
package fault

import (
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Kind classifies a failure
type Kind int

const (
	KindInternal  Kind = iota
	KindInput          // bad arguments: missing project, missing preamble file
	KindDeclined       // user said no to an overwrite
	KindCompile        // compilation unit has error diagnostics
	KindWrite          // destination could not be written
	KindEnumerate      // project tree could not be listed
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindDeclined:
		return "declined"
	case KindCompile:
		return "compile"
	case KindWrite:
		return "write"
	case KindEnumerate:
		return "enumerate"
	default:
		return "internal"
	}
}

// ❌ Error is a tagged failure
type Error struct {
	Kind Kind
	Err  error
	Hint string // optional remedy shown to the user
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " failure"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// 🏭 New tags err with kind
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// 🏭 Newf tags a formatted error with kind
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: errors.Errorf(format, args...)}
}

// WithHint returns a copy of e carrying hint
func (e *Error) WithHint(hint string) *Error {
	cp := *e
	cp.Hint = hint
	return &cp
}

// 🔍 KindOf returns the kind of the first tagged failure in err's chain.
// Untagged errors are internal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// HintOf returns the hint of the first tagged failure in err's chain
func HintOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Hint
	}
	return ""
}

// Is reports whether err carries a failure of kind
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// ExitCode maps err to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
