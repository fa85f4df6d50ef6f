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

// Package ignore decides which entries under a project root go into an
// archive.
package ignore

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/fault"
	"github.com/walteh/packmmip/pkg/log"
)

// FileNames are the recognized ignore files, in priority order
var FileNames = []string{".mmipignore", ".archiveignore"}

// DefaultPatterns apply when the project has no ignore file
var DefaultPatterns = []string{"*.zip", "*.mmip"}

// 📄 Entry is one filesystem entry below the project root
type Entry struct {
	Path  string // absolute path on disk
	Rel   string // slash separated path relative to the root
	IsDir bool
}

// 🚫 Rules is an immutable ignore rule set
type Rules struct {
	Source   string // ignore file the patterns came from, empty for defaults
	Patterns []string
}

// 🏭 Load reads the ignore rules for root. destination is the archive being
// written; its base name is always ignored when an ignore file is present.
func Load(ctx context.Context, root, destination string) (*Rules, error) {
	logger := log.FromContext(ctx)

	for _, name := range FileNames {
		p := filepath.Join(root, name)
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Errorf("reading ignore file %s: %w", p, err)
		}

		logger.Infof("Found ignore pattern in %s", name)

		patterns := make([]string, 0, 8)
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(strings.TrimRight(line, "\r"))
			if line == "" {
				continue
			}
			if !doublestar.ValidatePattern(strings.TrimSuffix(strings.TrimPrefix(line, "/"), "/")) {
				logger.Warningf("Ignoring invalid pattern %q in %s", line, name)
				continue
			}
			patterns = append(patterns, line)
		}
		patterns = append(patterns, name)
		if destination != "" {
			patterns = append(patterns, filepath.Base(destination))
		}

		return &Rules{Source: p, Patterns: patterns}, nil
	}

	return &Rules{Patterns: append([]string(nil), DefaultPatterns...)}, nil
}

// 🔍 Match reports whether the entry at rel matches one of the rules, or
// sits below a directory matched by a folder rule (see Prunes).
func (r *Rules) Match(rel string, isDir bool) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false
	}

	for _, pattern := range r.Patterns {
		if matchPattern(pattern, rel, isDir) {
			return true
		}
	}
	for cur := path.Dir(rel); cur != "." && cur != ""; cur = path.Dir(cur) {
		if r.Prunes(cur) {
			return true
		}
	}
	return false
}

// Prunes reports whether the directory at rel is matched by a folder rule,
// which excludes everything below it. Folder rules end in "/" or name a
// path without wildcards; "*.zip" never hides the contents of a directory
// called assets.zip.
func (r *Rules) Prunes(rel string) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false
	}
	for _, pattern := range r.Patterns {
		if folderPattern(pattern) && matchPattern(pattern, rel, true) {
			return true
		}
	}
	return false
}

func folderPattern(pattern string) bool {
	return strings.HasSuffix(pattern, "/") || !strings.ContainsAny(pattern, "*?[{")
}

func matchPattern(pattern, rel string, isDir bool) bool {
	dirOnly := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")
	if dirOnly && !isDir {
		return false
	}

	anchored := false
	if strings.HasPrefix(pattern, "./") {
		pattern, anchored = strings.TrimPrefix(pattern, "./"), true
	} else if strings.HasPrefix(pattern, "/") {
		pattern, anchored = strings.TrimPrefix(pattern, "/"), true
	}

	target := rel
	if !anchored && !strings.Contains(pattern, "/") {
		target = path.Base(rel)
	}

	matched, err := doublestar.Match(pattern, target)
	return err == nil && matched
}

// 📋 Resolve loads the rules for root and returns every entry that is not
// ignored, sorted by relative path. The root itself is never returned.
func Resolve(ctx context.Context, root, destination string) ([]Entry, *Rules, error) {
	logger := log.FromContext(ctx)
	zlog := zerolog.Ctx(ctx)

	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fault.New(fault.KindEnumerate, errors.Errorf("reading project root: %w", err))
	}
	if !info.IsDir() {
		return nil, nil, fault.Newf(fault.KindEnumerate, "project root %s is not a directory", root)
	}

	rules, err := Load(ctx, root, destination)
	if err != nil {
		return nil, nil, fault.New(fault.KindEnumerate, err)
	}

	zlog.Debug().Str("root", root).Strs("patterns", rules.Patterns).Msg("resolving project files")

	var entries []Entry
	skipped := 0
	err = doublestar.GlobWalk(os.DirFS(root), "**", func(rel string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rel == "" || rel == "." {
			return nil
		}
		if d.IsDir() && rules.Prunes(rel) {
			return doublestar.SkipDir
		}
		if rules.Match(rel, d.IsDir()) {
			if !d.IsDir() {
				skipped++
			}
			return nil
		}
		entries = append(entries, Entry{
			Path:  filepath.Join(root, filepath.FromSlash(rel)),
			Rel:   rel,
			IsDir: d.IsDir(),
		})
		return nil
	}, doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, nil, fault.New(fault.KindEnumerate, errors.Errorf("listing %s: %w", root, err))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })

	if rules.Source != "" {
		logger.Infof("Ignored patterns: %s", strings.Join(rules.Patterns, ", "))
	}
	if skipped > 0 {
		logger.Infof("%d files skipped", skipped)
	}

	return entries, rules, nil
}

// Files filters entries down to regular files
func Files(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir {
			out = append(out, e)
		}
	}
	return out
}
