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
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/packmmip/cmd/packmmip/opts"
	"github.com/walteh/packmmip/pkg/log"
	"github.com/walteh/packmmip/pkg/operation"
	"github.com/walteh/packmmip/pkg/prompt"
	"github.com/walteh/packmmip/pkg/watch"
)

// NewWatchCmd creates the watch command
func NewWatchCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <project> [destination]",
		Short: "Pack a project and pack it again whenever it changes",
		Long: `Watch packs the project once, then repacks it every time a file the
ignore rules keep is changed. The archive is replaced without asking.
Press Ctrl-C to stop.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			output := ""
			if len(args) > 1 {
				output = args[1]
			}

			options, err := o.Options(ctx, cmd.Flags(), args[0], output)
			if err != nil {
				return err
			}
			options.DryRun = false
			options.OpenAfterComplete = false
			options.ShowAfterComplete = false

			ctx = zerolog.Ctx(ctx).With().Str("command", "watch").Logger().WithContext(ctx)

			pack := func(ctx context.Context) error {
				return operation.NewPackOperation(options, prompt.Auto{}, nil).Execute(ctx)
			}

			if err := pack(ctx); err != nil {
				logger.Errorf("Initial pack failed: %v", err)
			}

			root, err := options.RootPath()
			if err != nil {
				return err
			}
			dest, err := operation.ResolveDestination(ctx, options)
			if err != nil {
				return err
			}

			w, err := watch.New(ctx, watch.Config{
				Root:        root,
				Destination: dest,
				OnChange: func(ctx context.Context, changed []string) error {
					logger.Infof("Changed: %s", strings.Join(changed, ", "))
					return pack(ctx)
				},
			})
			if err != nil {
				return err
			}

			logger.Infof("Watching %s, press Ctrl-C to stop", root)
			return w.Run(ctx)
		},
	}

	return cmd
}
