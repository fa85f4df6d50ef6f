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

package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/cmd/packmmip/opts"
	"github.com/walteh/packmmip/pkg/manifest"
)

// NewInitCmd creates the init command
func NewInitCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [project]",
		Short: "Create the info.json manifest for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectArg(o, args)
			if err != nil {
				return err
			}

			if _, err := manifest.Init(cmd.Context(), root, o.Prompter()); err != nil {
				return errors.Errorf("initializing project: %w", err)
			}
			return nil
		},
	}

	return cmd
}

// projectArg returns the absolute project folder, the working directory
// when no argument was given
func projectArg(o *opts.RootOpts, args []string) (string, error) {
	p := "."
	if len(args) > 0 {
		p = args[0]
	}
	if !filepath.IsAbs(p) && o.WorkDir != "" {
		p = filepath.Join(o.WorkDir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Errorf("resolving project folder: %w", err)
	}
	return abs, nil
}
