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
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/archive"
	"github.com/walteh/packmmip/pkg/fault"
	"github.com/walteh/packmmip/pkg/log"
	"github.com/walteh/packmmip/pkg/prompt"
	"github.com/walteh/packmmip/pkg/text"
)

// 🎯 Operation is one unit of work the runner executes
type Operation interface {
	Execute(ctx context.Context) error
}

// 📦 PackOperation packs one project folder
type PackOperation struct {
	Options  Options
	Prompter prompt.Prompter
	Launcher Launcher

	// set by Execute
	Destination string
	Result      *archive.Result
	Plan        []archive.PlanEntry
}

var _ Operation = (*PackOperation)(nil)

// 🏭 NewPackOperation creates a pack operation. A nil launcher selects the
// system one. p is required; pass prompt.Auto{} to replace existing archives
// without asking.
func NewPackOperation(opts Options, p prompt.Prompter, l Launcher) *PackOperation {
	if l == nil {
		l = SystemLauncher{}
	}
	return &PackOperation{Options: opts, Prompter: p, Launcher: l}
}

// spec validates the inputs and builds the archive spec
func (op *PackOperation) spec(ctx context.Context) (archive.Spec, error) {
	opts := op.Options

	root, err := opts.RootPath()
	if err != nil {
		return archive.Spec{}, err
	}
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return archive.Spec{}, fault.Newf(fault.KindInput, "project folder %s does not exist", root)
	} else if err != nil {
		return archive.Spec{}, fault.New(fault.KindInput, errors.Errorf("checking project folder: %w", err))
	}
	if !info.IsDir() {
		return archive.Spec{}, fault.Newf(fault.KindInput, "%s is not a folder", root)
	}

	spec := archive.Spec{
		Root:         root,
		ImportPrefix: opts.ImportPrefix,
		Compile:      opts.Compile,
	}

	if opts.PreambleFile != "" {
		p, err := opts.abs(opts.PreambleFile)
		if err != nil {
			return archive.Spec{}, err
		}
		if _, err := os.Stat(p); err != nil {
			return archive.Spec{}, fault.Newf(fault.KindInput, "preamble file %s does not exist", p)
		}
		if spec.Preamble, err = text.LoadPreamble(p, opts.PreamblePatterns); err != nil {
			return archive.Spec{}, fault.New(fault.KindInput, err)
		}
	}

	if opts.LicenseFile != "" {
		if spec.LicenseFile, err = opts.abs(opts.LicenseFile); err != nil {
			return archive.Spec{}, err
		}
		if _, err := os.Stat(spec.LicenseFile); err != nil {
			return archive.Spec{}, fault.Newf(fault.KindInput, "license file %s does not exist", spec.LicenseFile)
		}
	}

	if spec.Destination, err = ResolveDestination(ctx, opts); err != nil {
		return archive.Spec{}, err
	}

	return spec, nil
}

// 🏃 Execute packs the project. It returns once the archive file is closed;
// reveal and open only happen after that.
func (op *PackOperation) Execute(ctx context.Context) error {
	logger := log.FromContext(ctx)
	zlog := zerolog.Ctx(ctx)

	if op.Prompter == nil {
		return fault.Newf(fault.KindInternal, "pack operation has no prompter")
	}

	spec, err := op.spec(ctx)
	if err != nil {
		return err
	}
	op.Destination = spec.Destination

	if op.Options.DryRun {
		return op.dryRun(ctx, spec)
	}

	if _, err := os.Stat(spec.Destination); err == nil {
		ok, err := op.Prompter.Confirm(ctx, spec.Destination+" already exists. Overwrite?", true)
		if err != nil {
			return errors.Errorf("confirming overwrite: %w", err)
		}
		if !ok {
			return fault.Newf(fault.KindDeclined, "not overwriting %s", spec.Destination)
		}
	}

	logger.StartArchiveOperation(ctx, log.ArchiveOperation{
		Source:      spec.Root,
		Destination: spec.Destination,
		Format:      op.Options.Format.String(),
	})

	result, err := archive.Build(ctx, spec)
	written := logger.EndArchiveOperation(ctx)
	if err != nil {
		return err
	}
	op.Result = result

	logger.LogNewline()
	logger.Successf("Done. %d files, total size: %.2f KiB", written, float64(result.Size)/1024)

	if op.Options.Debug {
		if info, err := os.Stat(spec.Destination); err == nil {
			zlog.Debug().Int64("size", info.Size()).Msg("double checking file size")
			logger.Infof("Double checking file size: %.2f KiB", float64(info.Size())/1024)
		}
	}

	if op.Options.ShowAfterComplete {
		logger.Info("Opening parent folder")
		if err := op.Launcher.Reveal(ctx, spec.Destination); err != nil {
			logger.Warningf("Could not show the file: %v", err)
		}
	}
	if op.Options.OpenAfterComplete {
		logger.Info("Opening file")
		if err := op.Launcher.Open(ctx, spec.Destination); err != nil {
			logger.Warningf("Could not open the file: %v", err)
		}
	}

	return nil
}

func (op *PackOperation) dryRun(ctx context.Context, spec archive.Spec) error {
	logger := log.FromContext(ctx)

	logger.Header("dry run, nothing is written")
	logger.StartArchiveOperation(ctx, log.ArchiveOperation{
		Source:      spec.Root,
		Destination: spec.Destination,
		Format:      op.Options.Format.String(),
	})

	plan, err := archive.Plan(ctx, spec)
	written := logger.EndArchiveOperation(ctx)
	if err != nil {
		return err
	}
	op.Plan = plan

	if op.Options.Diff {
		for _, e := range plan {
			if diff := e.Diff(); diff != "" {
				logger.LogNewline()
				logger.Plain("--- " + e.Name + " (" + e.Status + ")")
				logger.Plain(diff)
			}
		}
	}

	logger.LogNewline()
	logger.Infof("%d files would be written to %s", written, spec.Destination)
	return nil
}
