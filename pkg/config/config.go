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

package config

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/text"
)

// 🔌 Parser reads and writes one config format
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 💾 Encode renders the config in this format
	Encode(cfg *Config) ([]byte, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config holds pack defaults. Nil and empty fields are unset and leave
// the value underneath them alone when merged.
type Config struct {
	OpenAfterComplete *bool             `json:"openAfterComplete,omitempty" yaml:"openAfterComplete,omitempty"`
	ShowAfterComplete *bool             `json:"showAfterComplete,omitempty" yaml:"showAfterComplete,omitempty"`
	PutFileIntoBin    *bool             `json:"putFileIntoBin,omitempty" yaml:"putFileIntoBin,omitempty"`
	Debug             *bool             `json:"debug,omitempty" yaml:"debug,omitempty"`
	AppendVersion     *bool             `json:"appendVersion,omitempty" yaml:"appendVersion,omitempty"`
	Compile           *bool             `json:"compile,omitempty" yaml:"compile,omitempty"`
	PreambleFile      string            `json:"preambleFile,omitempty" yaml:"preambleFile,omitempty"`
	LicenseFile       string            `json:"licenseFile,omitempty" yaml:"licenseFile,omitempty"`
	ImportPrefix      string            `json:"importPrefix,omitempty" yaml:"importPrefix,omitempty"`
	PreamblePatterns  map[string]string `json:"preamblePatterns,omitempty" yaml:"preamblePatterns,omitempty"`

	location string
}

// Bool returns a pointer to v, for filling Config fields
func Bool(v bool) *bool {
	return &v
}

// Location returns the file the config was loaded from, empty for merged or
// built configs
func (cfg *Config) Location() string {
	return cfg.location
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	cfg.location = path
	return cfg, nil
}

// 💾 Save writes cfg to path in the format chosen by its extension
func Save(ctx context.Context, path string, cfg *Config) error {
	p := GetParser(path)
	if p == nil {
		return errors.Errorf("no parser found for file: %s", path)
	}

	data, err := p.Encode(cfg)
	if err != nil {
		return errors.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Errorf("writing config file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Str("contents", string(data)).Msg("saved configuration")
	return nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	for ext, pattern := range cfg.PreamblePatterns {
		if strings.TrimPrefix(ext, ".") == "" {
			return errors.Errorf("preamble pattern with an empty extension")
		}
		if !strings.Contains(pattern, text.Placeholder) {
			return errors.Errorf("preamble pattern for %q has no %s placeholder", ext, text.Placeholder)
		}
	}
	if strings.ContainsAny(cfg.ImportPrefix, "'\"\n") {
		return errors.Errorf("import prefix %q contains quotes or newlines", cfg.ImportPrefix)
	}
	return nil
}

// 🔀 Merge returns a copy of cfg with every field set in over applied on top
func (cfg *Config) Merge(over *Config) *Config {
	out := *cfg
	out.location = ""
	out.PreamblePatterns = nil
	for ext, pattern := range cfg.PreamblePatterns {
		out.setPattern(ext, pattern)
	}

	if over == nil {
		return &out
	}

	for _, f := range []struct {
		dst **bool
		src *bool
	}{
		{&out.OpenAfterComplete, over.OpenAfterComplete},
		{&out.ShowAfterComplete, over.ShowAfterComplete},
		{&out.PutFileIntoBin, over.PutFileIntoBin},
		{&out.Debug, over.Debug},
		{&out.AppendVersion, over.AppendVersion},
		{&out.Compile, over.Compile},
	} {
		if f.src != nil {
			v := *f.src
			*f.dst = &v
		}
	}

	if over.PreambleFile != "" {
		out.PreambleFile = over.PreambleFile
	}
	if over.LicenseFile != "" {
		out.LicenseFile = over.LicenseFile
	}
	if over.ImportPrefix != "" {
		out.ImportPrefix = over.ImportPrefix
	}
	for ext, pattern := range over.PreamblePatterns {
		out.setPattern(ext, pattern)
	}

	return &out
}

func (cfg *Config) setPattern(ext, pattern string) {
	if cfg.PreamblePatterns == nil {
		cfg.PreamblePatterns = map[string]string{}
	}
	cfg.PreamblePatterns[strings.ToLower(strings.TrimPrefix(ext, "."))] = pattern
}

// ResolvePaths makes relative file references absolute against the
// directory of the file the config came from
func (cfg *Config) ResolvePaths() {
	if cfg.location == "" {
		return
	}
	dir := filepath.Dir(cfg.location)
	for _, p := range []*string{&cfg.PreambleFile, &cfg.LicenseFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// IsTrue reports whether b is set and true
func IsTrue(b *bool) bool {
	return b != nil && *b
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	var parts []string
	add := func(name string, b *bool) {
		if b != nil {
			parts = append(parts, name+"="+map[bool]string{true: "true", false: "false"}[*b])
		}
	}
	add("openAfterComplete", cfg.OpenAfterComplete)
	add("showAfterComplete", cfg.ShowAfterComplete)
	add("putFileIntoBin", cfg.PutFileIntoBin)
	add("debug", cfg.Debug)
	add("appendVersion", cfg.AppendVersion)
	add("compile", cfg.Compile)
	if cfg.PreambleFile != "" {
		parts = append(parts, "preambleFile="+cfg.PreambleFile)
	}
	if cfg.LicenseFile != "" {
		parts = append(parts, "licenseFile="+cfg.LicenseFile)
	}
	if cfg.ImportPrefix != "" {
		parts = append(parts, "importPrefix="+cfg.ImportPrefix)
	}
	exts := make([]string, 0, len(cfg.PreamblePatterns))
	for ext := range cfg.PreamblePatterns {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		parts = append(parts, "preamble."+ext+"="+cfg.PreamblePatterns[ext])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
