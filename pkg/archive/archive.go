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

// Package archive assembles a project directory into a zip file.
//
// Build resolves the project's files, compiles TypeScript when the project
// has a tsconfig.json, transforms source files and streams every entry into
// the destination. It returns only once the destination file is closed.
package archive

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/compile"
	"github.com/walteh/packmmip/pkg/fault"
	"github.com/walteh/packmmip/pkg/ignore"
	"github.com/walteh/packmmip/pkg/log"
	"github.com/walteh/packmmip/pkg/text"
)

// 📝 Spec describes one archive to build
type Spec struct {
	Root         string         // project root, absolute
	Destination  string         // archive path, absolute
	LicenseFile  string         // optional, added at the archive root
	Preamble     *text.Preamble // optional
	ImportPrefix string         // empty selects text.DefaultImportPrefix
	Compile      bool           // compile TypeScript when a tsconfig.json is present
}

// 📄 Entry is one file written (or planned) into the archive
type Entry struct {
	Name    string // path inside the archive
	Source  string // file on disk
	Role    text.Role
	Changes []string // transform rules that changed the content
	Size    int64    // uncompressed size
}

// 📦 Result describes a finished archive
type Result struct {
	Destination string
	Size        int64 // bytes on disk
	Entries     []Entry
}

type item struct {
	entry   ignore.Entry
	name    string
	role    text.Role
	license bool
	skip    string // status when the item is left out
}

// pipeline is the resolved, compiled, not yet written archive
type pipeline struct {
	spec        Spec
	program     *compile.Program
	transformer *text.Transformer
	items       []item
}

func (p *pipeline) close() {
	if p.program != nil {
		p.program.Close()
	}
}

// prepare resolves files and runs the compiler. Nothing is written.
func prepare(ctx context.Context, spec Spec) (*pipeline, error) {
	logger := log.FromContext(ctx)

	entries, _, err := ignore.Resolve(ctx, spec.Root, spec.Destination)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		spec:        spec,
		transformer: text.NewTransformer(spec.ImportPrefix, spec.Preamble),
	}

	if spec.Compile {
		prog, err := compile.Load(ctx, spec.Root)
		if err != nil {
			return nil, errors.Errorf("loading compilation unit: %w", err)
		}
		if prog != nil {
			logger.Infof("Compiling TypeScript from %s (%d files)", compile.ConfigFileName, len(prog.Files()))
			for _, d := range prog.Diagnostics() {
				if d.Severity == compile.SeverityError {
					logger.Plain(d.String())
				} else {
					logger.Warning(d.String())
				}
			}
			if prog.HasErrors() {
				prog.Close()
				n := compile.CountErrors(prog.Diagnostics())
				return nil, fault.Newf(fault.KindCompile, "compilation failed with %d error(s)", n)
			}
			p.program = prog
		}
	}

	byName := map[string]int{}
	for _, e := range ignore.Files(entries) {
		compiling := p.program != nil && p.program.Contains(e.Rel)
		role := text.Classify(text.Ext(e.Rel), compiling, spec.Preamble)

		it := item{entry: e, role: role, name: text.OutputName(e.Rel, role)}
		if compiling && p.program.IsDeclaration(e.Rel) {
			it.skip = "declaration"
		}

		if prev, ok := byName[it.name]; ok && it.skip == "" {
			// compiled output wins over a stale file of the same name
			if it.role == text.RoleCompiledSource {
				p.items[prev].skip = "shadowed"
			} else {
				it.skip = "shadowed"
			}
		}
		if it.skip == "" {
			byName[it.name] = len(p.items)
		}
		p.items = append(p.items, it)
	}

	if spec.LicenseFile != "" {
		name := filepath.Base(spec.LicenseFile)
		it := item{
			entry:   ignore.Entry{Path: spec.LicenseFile, Rel: name},
			name:    name,
			role:    text.RoleOpaque,
			license: true,
		}
		if _, ok := byName[name]; ok {
			logger.Warningf("License file %s replaces the project file of the same name", name)
			p.items[byName[name]].skip = "shadowed"
		}
		p.items = append(p.items, it)
	}

	return p, nil
}

// content returns the bytes that go into the archive for a non opaque item
func (p *pipeline) content(ctx context.Context, it item) ([]byte, []string, error) {
	var src io.Reader
	if it.role == text.RoleCompiledSource {
		out, err := p.program.Emit(it.entry.Rel)
		if err != nil {
			return nil, nil, errors.Errorf("emitting %s: %w", it.entry.Rel, err)
		}
		src = bytes.NewReader([]byte(out.Text))
	} else {
		data, err := os.ReadFile(it.entry.Path)
		if err != nil {
			return nil, nil, err
		}
		src = bytes.NewReader(data)
	}

	res, err := p.transformer.Transform(ctx, src, text.File{Rel: it.entry.Rel, Role: it.role})
	if err != nil {
		return nil, nil, errors.Errorf("transforming %s: %w", it.entry.Rel, err)
	}
	return res.ModifiedContent, res.Changes, nil
}

func status(it item, changes []string) (string, bool) {
	switch {
	case it.license:
		return "license", false
	case it.role == text.RoleCompiledSource:
		return "compiled", true
	case len(changes) > 0:
		return "rewritten", true
	default:
		return "stored", false
	}
}

// 🔨 Build writes the archive described by spec. Compile errors are
// reported before the destination is touched. On failure the partial file
// is removed.
func Build(ctx context.Context, spec Spec) (*Result, error) {
	logger := log.FromContext(ctx)
	zlog := zerolog.Ctx(ctx)

	p, err := prepare(ctx, spec)
	if err != nil {
		return nil, err
	}
	defer p.close()

	s, err := openSink(ctx, spec.Destination)
	if err != nil {
		return nil, err
	}

	result := &Result{Destination: spec.Destination}
	fail := func(err error) (*Result, error) {
		s.abort(err)
		return nil, err
	}

	for _, it := range p.items {
		if err := ctx.Err(); err != nil {
			return fail(errors.Errorf("building archive: %w", err))
		}

		if it.skip != "" {
			logger.LogEntryOperation(ctx, log.EntryOperation{Path: it.entry.Rel, Role: it.role.String(), Status: it.skip, IsSkipped: true})
			continue
		}

		entry, err := p.write(ctx, s, it)
		if errors.Is(err, fs.ErrNotExist) {
			st := "vanished"
			if it.license {
				st = "not found"
			}
			logger.Warningf("Skipping %s: %v", it.entry.Rel, err)
			logger.LogEntryOperation(ctx, log.EntryOperation{Path: it.entry.Rel, Role: it.role.String(), Status: st, IsSkipped: true})
			continue
		}
		if err != nil {
			return fail(err)
		}

		st, transformed := status(it, entry.Changes)
		logger.LogEntryOperation(ctx, log.EntryOperation{
			Path:          entry.Name,
			Role:          it.role.String(),
			Status:        st,
			IsTransformed: transformed,
			Changes:       len(entry.Changes),
		})
		result.Entries = append(result.Entries, *entry)
	}

	size, err := s.finalize()
	if err != nil {
		return nil, err
	}
	result.Size = size

	zlog.Debug().
		Str("destination", spec.Destination).
		Int("entries", len(result.Entries)).
		Int64("size", size).
		Msg("archive complete")

	return result, nil
}

// write adds one item to the sink. A missing source file is returned as
// fs.ErrNotExist before anything is written for it.
func (p *pipeline) write(ctx context.Context, s *sink, it item) (*Entry, error) {
	info, err := os.Stat(it.entry.Path)
	if err != nil {
		return nil, err
	}

	entry := &Entry{Name: it.name, Source: it.entry.Path, Role: it.role}

	if it.role == text.RoleOpaque {
		f, err := os.Open(it.entry.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		w, err := s.create(it.name, info.ModTime())
		if err != nil {
			return nil, err
		}
		n, err := io.Copy(w, f)
		if err != nil {
			return nil, writeFailure(s.path, errors.Errorf("adding %s: %w", it.name, err))
		}
		entry.Size = n
		return entry, nil
	}

	data, changes, err := p.content(ctx, it)
	if err != nil {
		return nil, err
	}

	w, err := s.create(it.name, info.ModTime())
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, writeFailure(s.path, errors.Errorf("adding %s: %w", it.name, err))
	}

	entry.Changes = changes
	entry.Size = int64(len(data))
	return entry, nil
}
