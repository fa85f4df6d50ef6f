package text

import (
	"path"
	"strings"
)

// 🏷️ Role decides how a file's bytes reach the archive
type Role int

const (
	// RoleOpaque files are copied byte for byte
	RoleOpaque Role = iota
	// RoleCompiledSource files are TypeScript emitted to JavaScript first
	RoleCompiledSource
	// RolePlainSource files get import rewriting and the preamble
	RolePlainSource
	// RolePreambleOnly files only get the preamble
	RolePreambleOnly
)

// String returns a string representation of Role
func (r Role) String() string {
	switch r {
	case RoleCompiledSource:
		return "compiled"
	case RolePlainSource:
		return "source"
	case RolePreambleOnly:
		return "preamble"
	default:
		return "opaque"
	}
}

// IsSource reports whether the import rules apply
func (r Role) IsSource() bool {
	return r == RoleCompiledSource || r == RolePlainSource
}

// Ext returns the lower cased extension of name without the dot
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// 🔍 Classify assigns the role for a file extension. compiling reports
// whether a compilation unit is active; preamble may be nil.
func Classify(ext string, compiling bool, preamble *Preamble) Role {
	switch ext {
	case "ts":
		if compiling {
			return RoleCompiledSource
		}
		return RolePlainSource
	case "js":
		return RolePlainSource
	}

	if preamble.Has(ext) {
		return RolePreambleOnly
	}
	return RoleOpaque
}

// OutputName returns the archive name for rel. Compiled sources trade their
// .ts extension for .js.
func OutputName(rel string, role Role) string {
	if role != RoleCompiledSource {
		return rel
	}
	return strings.TrimSuffix(rel, path.Ext(rel)) + ".js"
}
