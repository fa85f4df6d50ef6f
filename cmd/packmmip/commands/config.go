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
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/cmd/packmmip/opts"
	"github.com/walteh/packmmip/pkg/config"
	"github.com/walteh/packmmip/pkg/log"
	"github.com/walteh/packmmip/pkg/prompt"
)

// NewConfigCmd creates the config command
func NewConfigCmd(o *opts.RootOpts) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Set the defaults used by every pack",
		Long: `Config asks for the defaults applied to every pack and saves them in the
user config folder. Use -z to edit the defaults for .zip packing. Values
from a project file or the command line still win.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			dir := o.UserDir
			if dir == "" {
				var err error
				if dir, err = config.UserDir(); err != nil {
					return err
				}
			}

			current, err := config.LoadUser(ctx, dir, o.Flags.Zip)
			if err != nil {
				return err
			}

			path, err := config.FindUser(dir, o.Flags.Zip)
			if err != nil {
				return err
			}
			if path == "" {
				path = filepath.Join(dir, config.UserBaseName(o.Flags.Zip)+".yaml")
			}

			if show {
				logger.Infof("%s: %s", path, current)
				return nil
			}

			updated, err := askDefaults(ctx, o.Prompter(), current)
			if err != nil {
				return err
			}

			if err := config.Save(ctx, path, updated); err != nil {
				return errors.Errorf("saving defaults: %w", err)
			}

			logger.Successf("Saved defaults to %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print the current defaults and exit")

	return cmd
}

func askDefaults(ctx context.Context, p prompt.Prompter, current *config.Config) (*config.Config, error) {
	out := current.Merge(nil)

	for _, q := range []struct {
		question string
		field    **bool
	}{
		{"Open the archive after packing?", &out.OpenAfterComplete},
		{"Show the archive in the file manager after packing?", &out.ShowAfterComplete},
		{"Put archives into a bin folder?", &out.PutFileIntoBin},
		{"Enable debug output?", &out.Debug},
	} {
		answer, err := p.Confirm(ctx, q.question, config.IsTrue(*q.field))
		if err != nil {
			return nil, err
		}
		*q.field = config.Bool(answer)
	}

	var err error
	if out.PreambleFile, err = p.Input(ctx, "Preamble file (empty for none)", out.PreambleFile); err != nil {
		return nil, err
	}
	if out.LicenseFile, err = p.Input(ctx, "License file (empty for none)", out.LicenseFile); err != nil {
		return nil, err
	}
	if out.ImportPrefix, err = p.Input(ctx, "Import prefix to rewrite (empty for mediamonkey/)", out.ImportPrefix); err != nil {
		return nil, err
	}

	if err := out.Validate(); err != nil {
		return nil, errors.Errorf("invalid defaults: %w", err)
	}
	return out, nil
}
