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

package compile

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gitlab.com/tozd/go/errors"
)

// ConfigFileName triggers compilation when present at the project root
const ConfigFileName = "tsconfig.json"

// 📝 CompilerOptions holds the compiler options that affect file selection
type CompilerOptions struct {
	OutDir  string `json:"outDir"`
	RootDir string `json:"rootDir"`
}

// 📝 Config is the subset of tsconfig.json the packer understands
type Config struct {
	Extends         string          `json:"extends"`
	Files           []string        `json:"files"`
	Include         []string        `json:"include"`
	Exclude         []string        `json:"exclude"`
	CompilerOptions CompilerOptions `json:"compilerOptions"`
}

// defaultExcludes apply when the config has no exclude list
var defaultExcludes = []string{"node_modules", "bower_components", "jspm_packages"}

// 🔍 LoadConfig reads the config at p, following relative extends chains.
// Paths in inherited configs are rebased onto root. Problems that do not
// prevent compiling are returned as warnings.
func LoadConfig(root, p string) (*Config, []Diagnostic, error) {
	return loadConfig(root, p, map[string]bool{})
}

func loadConfig(root, p string, seen map[string]bool) (*Config, []Diagnostic, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, nil, errors.Errorf("resolving %s: %w", p, err)
	}
	if seen[abs] {
		return nil, nil, errors.Errorf("circular extends through %s", p)
	}
	seen[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, nil, errors.Errorf("reading %s: %w", p, err)
	}

	data, err = StripJSONC(data)
	if err != nil {
		return nil, nil, errors.Errorf("parsing %s: %w", p, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, nil, errors.Errorf("parsing %s: %w", p, err)
	}

	cfg.rebase(root, filepath.Dir(abs))

	if cfg.Extends == "" {
		return &cfg, nil, nil
	}

	if !strings.HasPrefix(cfg.Extends, ".") {
		return &cfg, []Diagnostic{{
			Message:  "Base configuration '" + cfg.Extends + "' is not a relative path and was ignored.",
			Severity: SeverityWarning,
		}}, nil
	}

	basePath := filepath.Join(filepath.Dir(abs), filepath.FromSlash(cfg.Extends))
	if filepath.Ext(basePath) != ".json" {
		basePath += ".json"
	}

	base, warnings, err := loadConfig(root, basePath, seen)
	if err != nil {
		return nil, nil, errors.Errorf("loading base configuration: %w", err)
	}

	return cfg.inherit(base), warnings, nil
}

// rebase rewrites paths relative to dir so they are relative to root
func (c *Config) rebase(root, dir string) {
	if dir == root {
		return
	}
	fix := func(p string) string {
		rel, err := filepath.Rel(root, filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil {
			return p
		}
		return filepath.ToSlash(rel)
	}
	for i := range c.Files {
		c.Files[i] = fix(c.Files[i])
	}
	for i := range c.Include {
		c.Include[i] = fix(c.Include[i])
	}
	for i := range c.Exclude {
		c.Exclude[i] = fix(c.Exclude[i])
	}
	if c.CompilerOptions.OutDir != "" {
		c.CompilerOptions.OutDir = fix(c.CompilerOptions.OutDir)
	}
	if c.CompilerOptions.RootDir != "" {
		c.CompilerOptions.RootDir = fix(c.CompilerOptions.RootDir)
	}
}

// inherit fills unset fields of c from base
func (c *Config) inherit(base *Config) *Config {
	out := *c
	if out.Files == nil {
		out.Files = base.Files
	}
	if out.Include == nil {
		out.Include = base.Include
	}
	if out.Exclude == nil {
		out.Exclude = base.Exclude
	}
	if out.CompilerOptions.OutDir == "" {
		out.CompilerOptions.OutDir = base.CompilerOptions.OutDir
	}
	if out.CompilerOptions.RootDir == "" {
		out.CompilerOptions.RootDir = base.CompilerOptions.RootDir
	}
	return &out
}

// IncludePatterns returns the include globs, defaulting to everything when
// neither files nor include is set.
func (c *Config) IncludePatterns() []string {
	if c.Include == nil {
		if c.Files != nil {
			return nil
		}
		return []string{"**/*"}
	}
	out := make([]string, 0, len(c.Include))
	for _, p := range c.Include {
		out = append(out, normalizeSpec(p))
	}
	return out
}

// ExcludePatterns returns the exclude globs, with the usual package folders
// and the output directory excluded by default.
func (c *Config) ExcludePatterns() []string {
	src := c.Exclude
	if src == nil {
		src = append([]string(nil), defaultExcludes...)
		if c.CompilerOptions.OutDir != "" {
			src = append(src, c.CompilerOptions.OutDir)
		}
	}
	out := make([]string, 0, len(src))
	for _, p := range src {
		out = append(out, normalizeSpec(p))
	}
	return out
}

// normalizeSpec turns a tsconfig path spec into a doublestar pattern. A spec
// without wildcards or an extension names a directory.
func normalizeSpec(spec string) string {
	spec = strings.TrimPrefix(path.Clean(filepath.ToSlash(spec)), "./")
	if spec == "." {
		return "**/*"
	}
	if strings.ContainsAny(spec, "*?[{") || path.Ext(spec) != "" {
		return spec
	}
	return spec + "/**/*"
}

// 🧹 StripJSONC removes comments and trailing commas so a tsconfig file can
// be decoded as plain JSON. data may be modified.
func StripJSONC(data []byte) ([]byte, error) {
	out, err := hujson.Standardize(data)
	if err != nil {
		return nil, errors.Errorf("reading JSON with comments: %w", err)
	}
	return out, nil
}
