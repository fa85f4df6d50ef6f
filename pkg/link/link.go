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

// Package link mounts a project folder into the host application's add-on
// folder with a symbolic link, so edits show up after a restart without
// packing.
package link

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/fault"
	"github.com/walteh/packmmip/pkg/log"
	"github.com/walteh/packmmip/pkg/manifest"
	"github.com/walteh/packmmip/pkg/prompt"
)

const (
	ScriptsFolder = "Scripts"
	SkinsFolder   = "Skins"
	PortableDir   = "Portable"
)

// 🔗 Options configures one link
type Options struct {
	Project string // project folder, absolute

	// AppData is the roaming application data folder, empty when unknown
	AppData string
	// InstallDir is the host application's install folder
	InstallDir string
}

// DefaultOptions fills the host folders from the environment
func DefaultOptions(project string) Options {
	return Options{
		Project:    project,
		AppData:    os.Getenv("APPDATA"),
		InstallDir: `C:\Program Files (x86)\MediaMonkey 5`,
	}
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// DefaultDataFolder is offered when asking for the data folder: the
// application data folder when it has sub, the install folder otherwise
func DefaultDataFolder(opts Options, sub string) string {
	if opts.AppData != "" {
		p := filepath.Join(opts.AppData, "MediaMonkey5", sub)
		if exists(p) {
			return p
		}
	}
	return filepath.Join(opts.InstallDir, sub)
}

// 📁 ResolveFolder turns the data folder the user typed into the folder the
// link goes in. A Portable/<sub> folder wins; sub is appended when the path
// does not already end with it.
func ResolveFolder(ctx context.Context, base, sub string) (string, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return "", errors.Errorf("resolving data folder: %w", err)
	}

	if portable := filepath.Join(base, PortableDir, sub); exists(portable) {
		zerolog.Ctx(ctx).Debug().Str("folder", portable).Msg("switching to portable folder")
		base = portable
	}

	if !strings.EqualFold(filepath.Base(base), sub) {
		base = filepath.Join(base, sub)
		if !exists(base) {
			return "", fault.Newf(fault.KindInput, "could not find a %s folder (%s), did you enter the right path?", sub, base)
		}
	}

	if !exists(base) {
		return "", fault.Newf(fault.KindInput, "the folder %s does not exist", base)
	}
	return base, nil
}

// 🔗 Create links opts.Project into the host's add-on folder under the
// add-on id. It returns the link path.
func Create(ctx context.Context, opts Options, p prompt.Prompter) (string, error) {
	logger := log.FromContext(ctx)

	info, err := os.Stat(opts.Project)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fault.Newf(fault.KindInput, "the folder %s does not exist", opts.Project)
	} else if err != nil {
		return "", fault.New(fault.KindInput, err)
	}
	if !info.IsDir() {
		return "", fault.Newf(fault.KindInput, "%s is not a folder", opts.Project)
	}

	m, err := manifest.Read(opts.Project)
	if err != nil {
		return "", fault.New(fault.KindInput, err)
	}
	if m.ID == "" {
		return "", fault.Newf(fault.KindInput, "invalid %s: could not find the add-on id", manifest.FileName)
	}

	sub := ScriptsFolder
	if m.IsSkin() {
		zerolog.Ctx(ctx).Debug().Msg("add-on is a skin, linking into the skins folder")
		sub = SkinsFolder
	}

	def := DefaultDataFolder(opts, sub)
	answer, err := p.Input(ctx, "Path to your MediaMonkey data folder", def)
	if err != nil {
		return "", err
	}

	folder, err := ResolveFolder(ctx, answer, sub)
	if err != nil {
		return "", err
	}

	linkPath := filepath.Join(folder, m.ID)
	ok, err := p.Confirm(ctx, "Create link at "+linkPath+" -> "+opts.Project+"?", true)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fault.Newf(fault.KindDeclined, "link cancelled")
	}

	if err := os.Symlink(opts.Project, linkPath); err != nil {
		return "", fault.New(fault.KindWrite, errors.Errorf("creating link: %w", err)).
			WithHint("delete the existing folder or link at " + linkPath + " and try again")
	}

	logger.Successf("Created link at %s -> %s", linkPath, opts.Project)
	logger.Warning("Do NOT uninstall the add-on from within MediaMonkey; it may delete your project folder. Delete the link by hand instead.")
	return linkPath, nil
}
