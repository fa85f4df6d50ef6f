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
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🚀 Launcher hands a finished archive to the desktop
type Launcher interface {
	// Reveal shows path in the file manager
	Reveal(ctx context.Context, path string) error
	// Open opens path with its default application, which installs an
	// add-on package
	Open(ctx context.Context, path string) error
}

// 🖥️ SystemLauncher starts the platform's file manager or opener
type SystemLauncher struct {
	GOOS string // empty means runtime.GOOS
}

var _ Launcher = SystemLauncher{}

func (l SystemLauncher) goos() string {
	if l.GOOS == "" {
		return runtime.GOOS
	}
	return l.GOOS
}

// RevealCommand returns the command line that shows path in the file manager
func (l SystemLauncher) RevealCommand(path string) []string {
	switch l.goos() {
	case "windows":
		return []string{"explorer", "/select," + path}
	case "darwin":
		return []string{"open", "-R", path}
	default:
		return []string{"xdg-open", filepath.Dir(path)}
	}
}

// OpenCommand returns the command line that opens path
func (l SystemLauncher) OpenCommand(path string) []string {
	switch l.goos() {
	case "windows":
		return []string{"explorer", path}
	case "darwin":
		return []string{"open", path}
	default:
		return []string{"xdg-open", path}
	}
}

// Reveal implements Launcher
func (l SystemLauncher) Reveal(ctx context.Context, path string) error {
	return start(ctx, l.RevealCommand(path))
}

// Open implements Launcher
func (l SystemLauncher) Open(ctx context.Context, path string) error {
	return start(ctx, l.OpenCommand(path))
}

// start runs argv without waiting for it to exit
func start(ctx context.Context, argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return errors.Errorf("starting %s: %w", argv[0], err)
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Strs("argv", argv).Int("pid", cmd.Process.Pid).Msg("started launcher")

	go func() {
		// explorer exits non zero even when it worked
		if err := cmd.Wait(); err != nil {
			logger.Debug().Err(err).Strs("argv", argv).Msg("launcher exited")
		}
	}()
	return nil
}
