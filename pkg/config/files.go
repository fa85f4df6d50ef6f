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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/log"
)

const (
	// AppName names the user config directory
	AppName = "packmmip"

	// ProjectBaseName is the project config file name without extension
	ProjectBaseName = "packmmip"
)

// Extensions lists the config extensions in lookup order
var Extensions = []string{".yaml", ".yml", ".json", ".hcl"}

// UserDir returns the directory holding the user defaults files
func UserDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Errorf("finding user config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// UserBaseName is the user defaults file name without extension. Zip and
// mmip packing keep separate defaults.
func UserBaseName(zip bool) string {
	if zip {
		return "config-pack-zip"
	}
	return "config-pack-mmip"
}

// find returns the first existing dir/base+ext, empty when there is none
func find(dir, base string) (string, error) {
	for _, ext := range Extensions {
		p := filepath.Join(dir, base+ext)
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", errors.Errorf("checking %s: %w", p, err)
		}
		if !info.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

// FindUser returns the user defaults file in dir, empty when there is none
func FindUser(dir string, zip bool) (string, error) {
	return find(dir, UserBaseName(zip))
}

// FindProject returns the project config file at root, empty when there is
// none
func FindProject(root string) (string, error) {
	return find(root, ProjectBaseName)
}

// 👤 LoadUser loads the user defaults from dir. A file that cannot be read
// is reported and deleted so the next run starts clean; defaults are used.
func LoadUser(ctx context.Context, dir string, zip bool) (*Config, error) {
	logger := log.FromContext(ctx)

	p, err := FindUser(dir, zip)
	if err != nil {
		return nil, err
	}
	if p == "" {
		zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no user defaults")
		return &Config{}, nil
	}

	cfg, err := Load(ctx, p)
	if err != nil {
		logger.Warningf("Could not read %s: %v", p, err)
		if rmErr := os.Remove(p); rmErr != nil {
			logger.Warningf("Could not delete the invalid config: %v", rmErr)
		} else {
			logger.Info("Deleted the invalid config; using defaults")
		}
		return &Config{}, nil
	}

	cfg.ResolvePaths()
	return cfg, nil
}

// 📁 LoadProject loads the project config at root. A missing file is an
// empty config; an invalid one is an error.
func LoadProject(ctx context.Context, root string) (*Config, error) {
	p, err := FindProject(root)
	if err != nil {
		return nil, err
	}
	if p == "" {
		return &Config{}, nil
	}

	cfg, err := Load(ctx, p)
	if err != nil {
		return nil, errors.Errorf("loading project config: %w", err)
	}

	cfg.ResolvePaths()
	return cfg, nil
}
