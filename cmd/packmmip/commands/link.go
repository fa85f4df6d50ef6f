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
	"github.com/spf13/cobra"

	"github.com/walteh/packmmip/cmd/packmmip/opts"
	"github.com/walteh/packmmip/pkg/link"
)

// NewLinkCmd creates the link command
func NewLinkCmd(o *opts.RootOpts) *cobra.Command {
	var installDir string

	cmd := &cobra.Command{
		Use:   "link [project]",
		Short: "Link a project folder into the MediaMonkey add-on folder",
		Long: `Link creates a symbolic link to the project inside MediaMonkey's Scripts
or Skins folder, named after the add-on id from info.json. Changes to the
project show up after restarting MediaMonkey, without packing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectArg(o, args)
			if err != nil {
				return err
			}

			lo := link.DefaultOptions(root)
			if installDir != "" {
				lo.InstallDir = installDir
			}

			_, err = link.Create(cmd.Context(), lo, o.Prompter())
			return err
		},
	}

	cmd.Flags().StringVar(&installDir, "install-dir", "", "MediaMonkey install folder")

	return cmd
}
