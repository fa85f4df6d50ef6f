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

package main

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/walteh/packmmip/cmd/packmmip/commands"
	"github.com/walteh/packmmip/cmd/packmmip/opts"
	"github.com/walteh/packmmip/pkg/log"
)

// NewRootCmd builds the command tree. Packing is the default command.
func NewRootCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packmmip <project> [destination]",
		Short: "Pack MediaMonkey add-on projects into .mmip archives",
		Long: `packmmip turns a MediaMonkey add-on project folder into an installable
.mmip (or .zip) archive. Files matched by .mmipignore or .archiveignore are
left out; TypeScript is compiled when the project has a tsconfig.json.`,
		Args:          cobra.RangeArgs(1, 2),
		Version:       GetVersionInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd, o)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunPack(cmd, o, args)
		},
	}

	cmd.SetVersionTemplate(FormatVersion())
	cmd.SetGlobalNormalizationFunc(legacyFlagNames)
	addRootFlags(cmd, o)

	cmd.AddCommand(
		commands.NewPackCmd(o),
		commands.NewConfigCmd(o),
		commands.NewLinkCmd(o),
		commands.NewInitCmd(o),
		commands.NewWatchCmd(o),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	f := cmd.PersistentFlags()
	f.BoolVarP(&o.Flags.Zip, "extension-zip", "z", false, "write a .zip instead of a .mmip")
	f.BoolVarP(&o.Flags.AppendVersion, "append-version", "a", false, "append the version from info.json to the file name")
	f.BoolVarP(&o.Flags.PutIntoBin, "put-file-into-bin", "b", false, "put the archive into a bin folder")
	f.StringVarP(&o.Flags.PreambleFile, "preamble-file", "p", "", "prepend this file's text to every source file")
	f.StringVarP(&o.Flags.LicenseFile, "license-file", "l", "", "add this file to the archive root")
	f.BoolVarP(&o.Flags.Yes, "yes", "y", false, "answer yes to every question")
	f.BoolVarP(&o.Flags.OpenAfterComplete, "open-after-complete", "o", false, "open the archive when done")
	f.BoolVarP(&o.Flags.ShowAfterComplete, "show-after-complete", "s", false, "show the archive in the file manager when done")
	f.BoolVarP(&o.Flags.Debug, "debug", "d", false, "enable debug logging")
	f.BoolVarP(&o.Flags.IgnoreDefaults, "ignore-defaults", "i", false, "do not load the user defaults")
	f.BoolVar(&o.Flags.NoCompile, "no-compile", false, "do not compile TypeScript")
	f.StringVar(&o.Flags.ImportPrefix, "import-prefix", "", "import prefix rewritten to a relative path (default mediamonkey/)")
	f.BoolVar(&o.Flags.DryRun, "dry-run", false, "list what would be written without writing")
	f.BoolVar(&o.Flags.Diff, "diff", false, "with --dry-run, show the changes made to each file")
	f.BoolVar(&o.Flags.Async, "async", false, "run the pack on its own goroutine and stop waiting on Ctrl-C")
}

// flagAliases maps the camel-case flag spellings older scripts use, folded
// to lower case, to the current names
var flagAliases = map[string]string{
	"extensionzip":      "extension-zip",
	"appendversion":     "append-version",
	"putfileintobin":    "put-file-into-bin",
	"preamblefile":      "preamble-file",
	"licensefile":       "license-file",
	"openaftercomplete": "open-after-complete",
	"showaftercomplete": "show-after-complete",
	"ignoredefaults":    "ignore-defaults",
}

// legacyFlagNames accepts --appendVersion and friends for their kebab-case
// flags
func legacyFlagNames(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if canonical, ok := flagAliases[strings.ToLower(name)]; ok {
		return pflag.NormalizedName(canonical)
	}
	return pflag.NormalizedName(name)
}

// setupLogging configures zerolog and the console logger based on flags
func setupLogging(cmd *cobra.Command, o *opts.RootOpts) {
	level := zerolog.InfoLevel
	if o.Flags.Debug {
		level = zerolog.DebugLevel
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	// console lines are only mirrored into the structured log when debugging
	mirror := zerolog.Nop()
	if o.Flags.Debug {
		mirror = zlog
	}

	ctx := zlog.WithContext(cmd.Context())
	ctx = log.NewContext(ctx, log.New(o.Stdout, mirror))
	cmd.SetContext(ctx)
}
