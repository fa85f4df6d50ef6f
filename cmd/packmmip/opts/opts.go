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

package opts

import (
	"context"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/config"
	"github.com/walteh/packmmip/pkg/operation"
	"github.com/walteh/packmmip/pkg/prompt"
)

// Flags holds the values of the shared command line flags
type Flags struct {
	Zip               bool
	AppendVersion     bool
	PutIntoBin        bool
	PreambleFile      string
	LicenseFile       string
	Yes               bool
	OpenAfterComplete bool
	ShowAfterComplete bool
	Debug             bool
	IgnoreDefaults    bool
	NoCompile         bool
	ImportPrefix      string
	DryRun            bool
	Diff              bool
	Async             bool
}

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Flags Flags

	// UserDir holds the user defaults files; empty uses config.UserDir
	UserDir string
	// WorkDir resolves relative paths; empty uses the process directory
	WorkDir string

	Stdin  io.Reader
	Stdout io.Writer
}

// Prompter asks on the console unless --yes was given
func (o *RootOpts) Prompter() prompt.Prompter {
	return prompt.New(o.Flags.Yes, o.Stdin, o.Stdout)
}

// Overrides turns the flags the user actually set into a config layer
func (o *RootOpts) Overrides(fs *pflag.FlagSet) *config.Config {
	cfg := &config.Config{}
	set := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}

	if set("append-version") {
		cfg.AppendVersion = config.Bool(o.Flags.AppendVersion)
	}
	if set("put-file-into-bin") {
		cfg.PutFileIntoBin = config.Bool(o.Flags.PutIntoBin)
	}
	if set("open-after-complete") {
		cfg.OpenAfterComplete = config.Bool(o.Flags.OpenAfterComplete)
	}
	if set("show-after-complete") {
		cfg.ShowAfterComplete = config.Bool(o.Flags.ShowAfterComplete)
	}
	if set("debug") {
		cfg.Debug = config.Bool(o.Flags.Debug)
	}
	if set("no-compile") {
		cfg.Compile = config.Bool(!o.Flags.NoCompile)
	}
	cfg.PreambleFile = o.Flags.PreambleFile
	cfg.LicenseFile = o.Flags.LicenseFile
	cfg.ImportPrefix = o.Flags.ImportPrefix
	return cfg
}

// 🔀 Options layers user defaults, the project file and the flags, in that
// order, into the options for one pack
func (o *RootOpts) Options(ctx context.Context, fs *pflag.FlagSet, root, output string) (operation.Options, error) {
	base := &config.Config{}

	if !o.Flags.IgnoreDefaults {
		dir := o.UserDir
		if dir == "" {
			var err error
			if dir, err = config.UserDir(); err != nil {
				return operation.Options{}, err
			}
		}
		user, err := config.LoadUser(ctx, dir, o.Flags.Zip)
		if err != nil {
			return operation.Options{}, err
		}
		base = base.Merge(user)
	}

	absRoot := root
	if !filepath.IsAbs(absRoot) && o.WorkDir != "" {
		absRoot = filepath.Join(o.WorkDir, absRoot)
	}
	project, err := config.LoadProject(ctx, absRoot)
	if err != nil {
		return operation.Options{}, err
	}

	overrides := o.Overrides(fs)
	if err := overrides.Validate(); err != nil {
		return operation.Options{}, errors.Errorf("invalid flags: %w", err)
	}

	merged := base.Merge(project).Merge(overrides)
	zerolog.Ctx(ctx).Debug().Stringer("config", merged).Msg("merged configuration")

	opts := operation.OptionsFromConfig(merged)
	opts.Root = root
	opts.Output = output
	opts.WorkDir = o.WorkDir
	opts.DryRun = o.Flags.DryRun
	opts.Diff = o.Flags.Diff
	if o.Flags.Zip {
		opts.Format = operation.FormatZip
	}
	return opts, nil
}
