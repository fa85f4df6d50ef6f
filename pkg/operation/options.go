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

package operation

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/config"
	"github.com/walteh/packmmip/pkg/log"
	"github.com/walteh/packmmip/pkg/manifest"
)

// 📦 Format is the kind of archive produced
type Format int

const (
	FormatMMIP Format = iota // add-on package, a zip with the .mmip extension
	FormatZip                // plain zip
)

// String returns a string representation of Format
func (f Format) String() string {
	if f == FormatZip {
		return "zip"
	}
	return "mmip"
}

// Ext returns the file extension forced onto the destination
func (f Format) Ext() string {
	return "." + f.String()
}

// 🔧 Options is everything one pack run needs. It is not modified once the
// run starts.
type Options struct {
	Root   string // project folder
	Output string // destination path or name; empty uses the project folder name
	Format Format

	AppendVersion     bool
	PutIntoBin        bool
	PreambleFile      string
	PreamblePatterns  map[string]string
	LicenseFile       string
	ImportPrefix      string
	Compile           bool
	OpenAfterComplete bool
	ShowAfterComplete bool
	Debug             bool

	DryRun bool
	Diff   bool // with DryRun, print the changes made to transformed files

	// WorkDir resolves relative paths; empty means the process working
	// directory
	WorkDir string
}

// 🔀 OptionsFromConfig fills the option fields config can carry. Paths and
// format are left for the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AppendVersion:     config.IsTrue(cfg.AppendVersion),
		PutIntoBin:        config.IsTrue(cfg.PutFileIntoBin),
		PreambleFile:      cfg.PreambleFile,
		PreamblePatterns:  cfg.PreamblePatterns,
		LicenseFile:       cfg.LicenseFile,
		ImportPrefix:      cfg.ImportPrefix,
		Compile:           cfg.Compile == nil || *cfg.Compile,
		OpenAfterComplete: config.IsTrue(cfg.OpenAfterComplete),
		ShowAfterComplete: config.IsTrue(cfg.ShowAfterComplete),
		Debug:             config.IsTrue(cfg.Debug),
	}
}

func (o Options) abs(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	wd := o.WorkDir
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			return "", errors.Errorf("finding working directory: %w", err)
		}
	}
	return filepath.Join(wd, p), nil
}

// RootPath returns the absolute project folder
func (o Options) RootPath() (string, error) {
	return o.abs(o.Root)
}

// 🎯 ResolveDestination works out where the archive goes. The name defaults
// to the project folder name, gets the manifest version when requested and
// always ends in the format's extension. With PutIntoBin the file moves
// into a bin folder next to where it would have gone.
func ResolveDestination(ctx context.Context, opts Options) (string, error) {
	logger := log.FromContext(ctx)

	root, err := opts.RootPath()
	if err != nil {
		return "", err
	}

	name := opts.Output
	if name == "" {
		name = filepath.Base(root)
	}
	name = strings.TrimRight(name, `/\`)

	if opts.AppendVersion {
		version, err := manifest.Version(root)
		if err != nil {
			logger.Warningf("Could not read %s to append the add-on version: %v", manifest.FileName, err)
		} else {
			name += "-" + version
		}
	}

	if ext := opts.Format.Ext(); !strings.HasSuffix(name, ext) {
		name += ext
	}

	dest, err := opts.abs(name)
	if err != nil {
		return "", err
	}

	if opts.PutIntoBin {
		dir := filepath.Join(filepath.Dir(dest), "bin")
		dest = filepath.Join(dir, filepath.Base(dest))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warningf("Could not create %s: %v", dir, err)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("root", root).Str("destination", dest).Msg("resolved destination")
	return dest, nil
}
