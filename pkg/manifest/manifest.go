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

// Package manifest reads and writes the add-on manifest, info.json.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/fault"
	"github.com/walteh/packmmip/pkg/log"
	"github.com/walteh/packmmip/pkg/prompt"
)

// FileName is the manifest file at the project root
const FileName = "info.json"

// DefaultVersion is offered when initializing a project
const DefaultVersion = "1.0.0"

// Types lists the add-on types offered by Init
var Types = []string{"general", "skin", "layout", "views", "sync", "metadata", "visualization", "plugin"}

// 📋 Manifest is the add-on description
type Manifest struct {
	Title         string `json:"title"`
	ID            string `json:"id"`
	Description   string `json:"description,omitempty"`
	Version       string `json:"version"`
	Type          string `json:"type"`
	Author        string `json:"author,omitempty"`
	MinAppVersion string `json:"minAppVersion,omitempty"`

	// Extra keeps keys this package does not know about
	Extra map[string]json.RawMessage `json:"-"`
}

// IsSkin reports whether the add-on installs into the skins folder
func (m *Manifest) IsSkin() bool {
	return strings.EqualFold(m.Type, "skin")
}

// 📖 Read loads the manifest from root
func Read(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", FileName, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Errorf("parsing %s: %w", FileName, err)
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, errors.Errorf("parsing %s: %w", FileName, err)
	}
	for _, known := range []string{"title", "id", "description", "version", "type", "author", "minAppVersion"} {
		delete(all, known)
	}
	if len(all) > 0 {
		m.Extra = all
	}

	return &m, nil
}

// 🏷️ Version returns the manifest version of root. An empty version is an
// error.
func Version(root string) (string, error) {
	m, err := Read(root)
	if err != nil {
		return "", err
	}
	if m.Version == "" {
		return "", errors.Errorf("%s has no version", FileName)
	}
	return m.Version, nil
}

// 💾 Write saves m to root with tab indentation
func Write(root string, m *Manifest) error {
	fields := map[string]any{}
	for k, v := range m.Extra {
		fields[k] = v
	}

	known, err := json.Marshal(m)
	if err != nil {
		return errors.Errorf("encoding %s: %w", FileName, err)
	}
	var knownFields map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownFields); err != nil {
		return errors.Errorf("encoding %s: %w", FileName, err)
	}
	for k, v := range knownFields {
		fields[k] = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(fields); err != nil {
		return errors.Errorf("encoding %s: %w", FileName, err)
	}

	if err := os.WriteFile(filepath.Join(root, FileName), buf.Bytes(), 0o644); err != nil {
		return errors.Errorf("writing %s: %w", FileName, err)
	}
	return nil
}

var idUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// DefaultID derives an id from a title: "My Cool Addon" becomes
// "my_cool_addon"
func DefaultID(title string) string {
	return strings.Trim(idUnsafe.ReplaceAllString(strings.ToLower(title), "_"), "_")
}

// ✨ Init asks for the manifest fields and writes info.json into root. An
// existing manifest is only replaced after confirmation; its values are
// offered as defaults.
func Init(ctx context.Context, root string, p prompt.Prompter) (*Manifest, error) {
	logger := log.FromContext(ctx)

	existing := &Manifest{Version: DefaultVersion, Type: Types[0]}
	if _, err := os.Stat(filepath.Join(root, FileName)); err == nil {
		ok, err := p.Confirm(ctx, FileName+" already exists. Overwrite?", false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fault.Newf(fault.KindDeclined, "not overwriting %s", FileName)
		}
		if m, err := Read(root); err == nil {
			existing = m
		} else {
			logger.Warningf("Ignoring the unreadable %s: %v", FileName, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Errorf("checking %s: %w", FileName, err)
	}

	m := &Manifest{Extra: existing.Extra}
	var err error

	title := existing.Title
	if title == "" {
		title = filepath.Base(root)
	}
	if m.Title, err = p.Input(ctx, "Title", title); err != nil {
		return nil, err
	}

	id := existing.ID
	if id == "" {
		id = DefaultID(m.Title)
	}
	if m.ID, err = p.Input(ctx, "ID", id); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, fault.Newf(fault.KindInput, "an add-on id is required")
	}

	if m.Description, err = p.Input(ctx, "Description", existing.Description); err != nil {
		return nil, err
	}
	if m.Version, err = p.Input(ctx, "Version", existing.Version); err != nil {
		return nil, err
	}
	if m.Type, err = p.Input(ctx, "Type ("+strings.Join(Types, ", ")+")", existing.Type); err != nil {
		return nil, err
	}
	if !knownType(m.Type) {
		logger.Warningf("%q is not a known add-on type", m.Type)
	}
	if m.Author, err = p.Input(ctx, "Author", existing.Author); err != nil {
		return nil, err
	}
	if m.MinAppVersion, err = p.Input(ctx, "Minimum application version", existing.MinAppVersion); err != nil {
		return nil, err
	}

	if err := Write(root, m); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("root", root).Str("id", m.ID).Msg("wrote manifest")
	logger.Successf("Wrote %s", filepath.Join(root, FileName))
	return m, nil
}

func knownType(t string) bool {
	for _, known := range Types {
		if strings.EqualFold(known, t) {
			return true
		}
	}
	return false
}
