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

// Package compile turns the TypeScript sources of a project into JavaScript
// in memory. A program is built from the project's tsconfig.json; syntax
// problems and constructs that cannot be emitted without type information
// are reported as diagnostics before anything is emitted.
package compile

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/fault"
)

var typeScriptLanguage = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())

// 📄 Output is the emitted JavaScript for one source file
type Output struct {
	Path string // slash separated archive path ending in .js
	Text string
}

type unitFile struct {
	rel         string
	declaration bool
	output      string
}

// 🏗️ Program is one compilation unit
type Program struct {
	root        string
	config      *Config
	files       map[string]*unitFile
	order       []string
	diagnostics []Diagnostic

	mu     sync.Mutex
	closed bool
}

// 🏭 Load builds the program for root. It returns nil, nil when the project
// has no tsconfig.json. Problems in the sources or the config are recorded
// as diagnostics rather than returned as errors.
func Load(ctx context.Context, root string) (*Program, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving project root: %w", err)
	}

	configPath := filepath.Join(root, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Errorf("checking for %s: %w", ConfigFileName, err)
	}

	p := &Program{
		root:  root,
		files: map[string]*unitFile{},
	}

	cfg, warnings, err := LoadConfig(root, configPath)
	if err != nil {
		p.diagnostics = append(p.diagnostics, Diagnostic{Message: err.Error(), Severity: SeverityError})
		return p, nil
	}
	p.config = cfg
	p.diagnostics = append(p.diagnostics, warnings...)

	rels, discoverDiags, err := discover(root, cfg)
	if err != nil {
		return nil, fault.New(fault.KindEnumerate, err)
	}
	p.diagnostics = append(p.diagnostics, discoverDiags...)

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(typeScriptLanguage); err != nil {
		return nil, errors.Errorf("loading typescript grammar: %w", err)
	}

	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if strings.HasSuffix(rel, ".tsx") {
			p.diagnostics = append(p.diagnostics, Diagnostic{
				File:     rel,
				Line:     1,
				Column:   1,
				Message:  "TSX files are not compiled and are archived unchanged.",
				Severity: SeverityWarning,
			})
			continue
		}

		src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fault.New(fault.KindEnumerate, errors.Errorf("reading %s: %w", rel, err))
		}

		f, diags := p.compileFile(parser, rel, src)
		p.files[rel] = f
		p.order = append(p.order, rel)
		p.diagnostics = append(p.diagnostics, diags...)
	}

	if len(p.order) == 0 && len(rels) == 0 {
		p.diagnostics = append(p.diagnostics, Diagnostic{
			Message:  "No inputs were found in config file '" + ConfigFileName + "'.",
			Severity: SeverityError,
		})
	}

	zerolog.Ctx(ctx).Debug().
		Str("root", root).
		Int("files", len(p.order)).
		Int("diagnostics", len(p.diagnostics)).
		Int("errors", CountErrors(p.diagnostics)).
		Msg("loaded compilation unit")

	return p, nil
}

func (p *Program) compileFile(parser *sitter.Parser, rel string, src []byte) (*unitFile, []Diagnostic) {
	f := &unitFile{rel: rel, declaration: strings.HasSuffix(rel, ".d.ts")}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return f, []Diagnostic{{File: rel, Line: 1, Column: 1, Message: "File could not be parsed.", Severity: SeverityError}}
	}
	defer tree.Close()

	out, diags := emitFile(tree.RootNode(), src, rel)
	if !f.declaration {
		f.output = out
	}
	return f, diags
}

// discover lists the unit's files, relative to root
func discover(root string, cfg *Config) ([]string, []Diagnostic, error) {
	set := map[string]bool{}
	var diags []Diagnostic

	for _, name := range cfg.Files {
		rel := strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "./")
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil || info.IsDir() {
			diags = append(diags, Diagnostic{
				Message:  "File '" + rel + "' not found.",
				Severity: SeverityError,
			})
			continue
		}
		set[rel] = true
	}

	includes := cfg.IncludePatterns()
	excludes := cfg.ExcludePatterns()

	if len(includes) > 0 {
		err := doublestar.GlobWalk(os.DirFS(root), "**", func(rel string, d fs.DirEntry) error {
			if d.IsDir() || !isSource(rel) {
				return nil
			}
			if !matchAny(includes, rel) || excluded(excludes, rel) {
				return nil
			}
			set[rel] = true
			return nil
		}, doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, nil, errors.Errorf("listing sources: %w", err)
		}
	}

	rels := make([]string, 0, len(set))
	for rel := range set {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	return rels, diags, nil
}

func isSource(rel string) bool {
	return strings.HasSuffix(rel, ".ts") || strings.HasSuffix(rel, ".tsx")
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// excluded reports whether rel or a folder above it matches an exclude
func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		for _, candidate := range []string{p, strings.TrimSuffix(p, "/**/*") + "/**"} {
			if ok, err := doublestar.Match(candidate, rel); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Files returns the sources in the unit, sorted
func (p *Program) Files() []string {
	return append([]string(nil), p.order...)
}

// Diagnostics returns every diagnostic found while loading
func (p *Program) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), p.diagnostics...)
}

// HasErrors reports whether any diagnostic is an error
func (p *Program) HasErrors() bool {
	return CountErrors(p.diagnostics) > 0
}

// Contains reports whether rel is part of the unit
func (p *Program) Contains(rel string) bool {
	_, ok := p.files[rel]
	return ok
}

// IsDeclaration reports whether rel is a declaration file of the unit
func (p *Program) IsDeclaration(rel string) bool {
	f, ok := p.files[rel]
	return ok && f.declaration
}

// 🔨 Emit returns the JavaScript for rel
func (p *Program) Emit(rel string) (*Output, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errors.New("program is closed")
	}

	f, ok := p.files[rel]
	if !ok {
		return nil, fault.Newf(fault.KindInternal, "%s is not part of the compilation unit", rel)
	}
	if f.declaration {
		return nil, fault.Newf(fault.KindInternal, "%s is a declaration file and emits nothing", rel)
	}

	return &Output{
		Path: strings.TrimSuffix(rel, ".ts") + ".js",
		Text: f.output,
	}, nil
}

// Close releases the emitted sources
func (p *Program) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.files = map[string]*unitFile{}
	return nil
}
