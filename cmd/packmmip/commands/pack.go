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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/packmmip/cmd/packmmip/opts"
	"github.com/walteh/packmmip/pkg/operation"
)

// NewPackCmd creates the pack command
func NewPackCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <project> [destination]",
		Short: "Pack a project folder into an add-on archive",
		Long: `Pack writes every file of the project that the ignore rules keep into a
ZIP archive. It will:
1. Compile TypeScript when the project has a tsconfig.json
2. Rewrite imports and add the preamble to source files
3. Write the archive, asking before replacing an existing one
4. Reveal or open the result when configured`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunPack(cmd, o, args)
		},
	}

	return cmd
}

// RunPack packs args[0] into args[1], or the default destination
func RunPack(cmd *cobra.Command, o *opts.RootOpts, args []string) error {
	ctx := cmd.Context()

	output := ""
	if len(args) > 1 {
		output = args[1]
	}

	options, err := o.Options(ctx, cmd.Flags(), args[0], output)
	if err != nil {
		return err
	}
	if options.Debug {
		ctx = zerolog.Ctx(ctx).Level(zerolog.DebugLevel).WithContext(ctx)
	}

	ctx = zerolog.Ctx(ctx).With().Str("command", "pack").Logger().WithContext(ctx)

	op := operation.NewPackOperation(options, o.Prompter(), nil)
	return operation.NewRunner(zerolog.Ctx(ctx), o.Flags.Async).Run(ctx, op)
}
