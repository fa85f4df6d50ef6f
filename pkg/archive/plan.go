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

package archive

import (
	"context"
	"io/fs"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/log"
	"github.com/walteh/packmmip/pkg/text"
)

// 🔍 PlanEntry is one entry Build would write, or leave out
type PlanEntry struct {
	Entry
	Status  string // stored, rewritten, compiled, license, or the reason it is skipped
	Skipped bool

	// set for transformed entries
	Original []byte
	Modified []byte
}

// Diff renders the change between the file on disk and the archived
// content. Empty when nothing changed.
func (e PlanEntry) Diff() string {
	if e.Modified == nil || string(e.Original) == string(e.Modified) {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(e.Original), string(e.Modified), false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}

// 🗺️ Plan runs selection, compilation and transforms the way Build does
// without touching the destination. Compile errors are returned as they
// would be by Build.
func Plan(ctx context.Context, spec Spec) ([]PlanEntry, error) {
	logger := log.FromContext(ctx)

	p, err := prepare(ctx, spec)
	if err != nil {
		return nil, err
	}
	defer p.close()

	var plan []PlanEntry
	for _, it := range p.items {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("planning archive: %w", err)
		}

		pe := PlanEntry{Entry: Entry{Name: it.name, Source: it.entry.Path, Role: it.role}}

		if it.skip != "" {
			pe.Status, pe.Skipped = it.skip, true
			plan = append(plan, pe)
			logger.LogEntryOperation(ctx, log.EntryOperation{Path: it.entry.Rel, Role: it.role.String(), Status: it.skip, IsSkipped: true})
			continue
		}

		info, err := os.Stat(it.entry.Path)
		if errors.Is(err, fs.ErrNotExist) {
			pe.Status, pe.Skipped = "vanished", true
			plan = append(plan, pe)
			logger.Warningf("Skipping %s: %v", it.entry.Rel, err)
			continue
		} else if err != nil {
			return nil, errors.Errorf("checking %s: %w", it.entry.Rel, err)
		}
		pe.Size = info.Size()

		if it.role != text.RoleOpaque {
			data, changes, err := p.content(ctx, it)
			if err != nil {
				return nil, err
			}
			original, err := os.ReadFile(it.entry.Path)
			if err != nil {
				return nil, errors.Errorf("reading %s: %w", it.entry.Rel, err)
			}
			pe.Original, pe.Modified = original, data
			pe.Changes = changes
			pe.Size = int64(len(data))
		}

		var transformed bool
		pe.Status, transformed = status(it, pe.Changes)
		logger.LogEntryOperation(ctx, log.EntryOperation{
			Path:          pe.Name,
			Role:          it.role.String(),
			Status:        pe.Status,
			IsTransformed: transformed,
			Changes:       len(pe.Changes),
		})
		plan = append(plan, pe)
	}

	return plan, nil
}
