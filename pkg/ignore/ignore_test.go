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

package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/packmmip/pkg/testutils"
)

func rels(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Rel)
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		files     map[string]string
		dest      string
		wantFiles []string
		wantRules []string
	}{
		{
			name: "defaults_exclude_archives_recursively",
			files: map[string]string{
				"info.json":          "{}",
				"main.js":            "",
				"old.zip":            "",
				"old.mmip":           "",
				"sub/nested.zip":     "",
				"sub/keep.txt":       "",
				"sub/UPPER.ZIP":      "",
				"sub/deeper/a.mmip":  "",
				"sub/deeper/b.mmipx": "",
			},
			dest: "out.mmip",
			wantFiles: []string{
				"info.json",
				"main.js",
				"sub/UPPER.ZIP",
				"sub/deeper/b.mmipx",
				"sub/keep.txt",
			},
			wantRules: []string{"*.zip", "*.mmip"},
		},
		{
			name: "directory_pattern_excludes_subtree",
			files: map[string]string{
				".mmipignore":        "build/\r\n\r\n",
				"build/out.js":       "",
				"build/deep/x.js":    "",
				"builder.js":         "",
				"src/main.js":        "",
				"src/build.txt":      "",
				"packed/project.zip": "",
			},
			dest: "/somewhere/project.zip",
			wantFiles: []string{
				"builder.js",
				"src/build.txt",
				"src/main.js",
			},
			wantRules: []string{"build/", ".mmipignore", "project.zip"},
		},
		{
			name: "first_ignore_file_wins",
			files: map[string]string{
				".mmipignore":    "*.md",
				".archiveignore": "*.js",
				"README.md":      "",
				"main.js":        "",
			},
			dest:      "out.mmip",
			wantFiles: []string{".archiveignore", "main.js"},
			wantRules: []string{"*.md", ".mmipignore", "out.mmip"},
		},
		{
			name: "fallback_ignore_file",
			files: map[string]string{
				".archiveignore": "docs\n/root.txt\n",
				"docs/a.md":      "",
				"root.txt":       "",
				"sub/root.txt":   "",
				"sub/docs/b.md":  "",
			},
			dest:      "out.mmip",
			wantFiles: []string{"sub/root.txt"},
			wantRules: []string{"docs", "/root.txt", ".archiveignore", "out.mmip"},
		},
		{
			name: "anchored_pattern_only_matches_root",
			files: map[string]string{
				".mmipignore":  "/root.txt",
				"root.txt":     "",
				"sub/root.txt": "",
			},
			dest:      "out.mmip",
			wantFiles: []string{"sub/root.txt"},
			wantRules: []string{"/root.txt", ".mmipignore", "out.mmip"},
		},
		{
			name: "path_pattern_matches_relative_path",
			files: map[string]string{
				".mmipignore":      "src/**/*.ts",
				"src/a.ts":         "",
				"src/deep/b.ts":    "",
				"other/c.ts":       "",
				"src/keep.js":      "",
				"src/deep/keep.js": "",
			},
			dest:      "out.mmip",
			wantFiles: []string{"other/c.ts", "src/deep/keep.js", "src/keep.js"},
			wantRules: []string{"src/**/*.ts", ".mmipignore", "out.mmip"},
		},
		{
			name: "wildcard_rule_keeps_folder_contents",
			files: map[string]string{
				"assets.zip/readme.txt": "",
				"assets.zip/old.zip":    "",
				"bundle.zip":            "",
				"main.js":               "",
			},
			dest:      "out.mmip",
			wantFiles: []string{"assets.zip/readme.txt", "main.js"},
			wantRules: []string{"*.zip", "*.mmip"},
		},
		{
			name: "bare_name_rule_excludes_folder_contents",
			files: map[string]string{
				".mmipignore":               "node_modules",
				"node_modules/lib/index.js": "",
				"src/node_modules/x.js":     "",
				"src/app.js":                "",
			},
			dest:      "out.mmip",
			wantFiles: []string{"src/app.js"},
			wantRules: []string{"node_modules", ".mmipignore", "out.mmip"},
		},
		{
			name: "match_everything_never_returns_root",
			files: map[string]string{
				".mmipignore": "*",
				"a.txt":       "",
				"dir/b.txt":   "",
			},
			dest:      "out.mmip",
			wantFiles: []string{},
			wantRules: []string{"*", ".mmipignore", "out.mmip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			testutils.WriteTree(t, root, tt.files)
			ctx := testutils.Context(t, nil)

			entries, rules, err := Resolve(ctx, root, tt.dest)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRules, rules.Patterns, "rules should match")
			assert.ElementsMatch(t, tt.wantFiles, rels(Files(entries)), "files should match")

			for _, e := range entries {
				assert.NotEmpty(t, e.Rel, "root must never be listed")
				assert.NotEqual(t, ".", e.Rel, "root must never be listed")
				assert.Equal(t, filepath.Join(root, filepath.FromSlash(e.Rel)), e.Path)
			}
		})
	}
}

func TestResolveIsSorted(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"z.txt":   "",
		"a/b.txt": "",
		"m.txt":   "",
		"a/a.txt": "",
	})

	entries, _, err := Resolve(testutils.Context(t, nil), root, "out.mmip")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a/a.txt", "a/b.txt", "m.txt", "z.txt"}, rels(entries))
}

func TestResolveMissingRoot(t *testing.T) {
	_, _, err := Resolve(testutils.Context(t, nil), filepath.Join(t.TempDir(), "nope"), "out.mmip")
	require.Error(t, err)
}

func TestRulesMatch(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		rel      string
		isDir    bool
		want     bool
	}{
		{name: "base_name_any_depth", patterns: []string{"*.zip"}, rel: "a/b/c.zip", want: true},
		{name: "case_sensitive", patterns: []string{"*.zip"}, rel: "c.ZIP", want: false},
		{name: "dir_only_skips_files", patterns: []string{"build/"}, rel: "build", isDir: false, want: false},
		{name: "dir_only_matches_dir", patterns: []string{"build/"}, rel: "build", isDir: true, want: true},
		{name: "ancestor_dir_match", patterns: []string{"node_modules"}, rel: "x/node_modules/pkg/index.js", want: true},
		{name: "anchored_dot_slash", patterns: []string{"./tmp"}, rel: "tmp", isDir: true, want: true},
		{name: "anchored_dot_slash_nested", patterns: []string{"./tmp"}, rel: "a/tmp", isDir: true, want: false},
		{name: "globstar", patterns: []string{"**/*.map"}, rel: "a/b/c.js.map", want: true},
		{name: "root_never_matches", patterns: []string{"*"}, rel: "", want: false},
		{name: "windows_separators", patterns: []string{"docs/*.md"}, rel: filepath.Join("docs", "a.md"), want: true},
		{name: "wildcard_rule_matches_folder_itself", patterns: []string{"*.zip"}, rel: "assets.zip", isDir: true, want: true},
		{name: "wildcard_rule_skips_folder_contents", patterns: []string{"*.zip"}, rel: "assets.zip/readme.txt", want: false},
		{name: "dir_only_rule_covers_contents", patterns: []string{"build/"}, rel: "build/out/a.js", want: true},
		{name: "dir_only_glob_covers_contents", patterns: []string{"dist*/"}, rel: "dist-web/a.js", want: true},
		{name: "path_rule_covers_contents", patterns: []string{"src/gen"}, rel: "src/gen/a.ts", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Rules{Patterns: tt.patterns}
			assert.Equal(t, tt.want, r.Match(tt.rel, tt.isDir))
		})
	}
}

func TestLoadDropsInvalidPatterns(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".mmipignore": "good/*.txt\n[unclosed\n  spaced.txt  \n",
	})

	rules, err := Load(testutils.Context(t, nil), root, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"good/*.txt", "spaced.txt", ".mmipignore"}, rules.Patterns)
	assert.Equal(t, filepath.Join(root, ".mmipignore"), rules.Source)
}

func TestRulesPrunes(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		rel      string
		want     bool
	}{
		{name: "dir_only", patterns: []string{"build/"}, rel: "build", want: true},
		{name: "bare_name_any_depth", patterns: []string{"node_modules"}, rel: "a/node_modules", want: true},
		{name: "wildcard_name", patterns: []string{"*.zip"}, rel: "assets.zip", want: false},
		{name: "globstar_path", patterns: []string{"**/*.map"}, rel: "maps/x.map", want: false},
		{name: "no_match", patterns: []string{"build/"}, rel: "src", want: false},
		{name: "root", patterns: []string{"build/"}, rel: ".", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Rules{Patterns: tt.patterns}
			assert.Equal(t, tt.want, r.Prunes(tt.rel))
		})
	}
}

func TestResolveDoesNotDescendIntoIgnoredFolders(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".mmipignore":             "node_modules/",
		"node_modules/a/index.js": "",
		"main.js":                 "",
	})

	// a link back to its own parent loops forever for a walker that enters
	// the folder
	require.NoError(t, os.Symlink(filepath.Join(root, "node_modules"), filepath.Join(root, "node_modules", "a", "loop")))

	entries, _, err := Resolve(testutils.Context(t, nil), root, "out.mmip")
	require.NoError(t, err)

	assert.Equal(t, []string{"main.js"}, rels(entries))
}
