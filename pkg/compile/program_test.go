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

package compile

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/packmmip/pkg/fault"
	"github.com/walteh/packmmip/pkg/testutils"
)

func TestLoadWithoutConfig(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{"main.ts": "let a: number = 1;\n"})

	p, err := Load(testutils.Context(t, nil), root)
	require.NoError(t, err)
	assert.Nil(t, p, "no tsconfig means no program")
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		wantFiles   []string
		wantErrors  int
		wantWarning int
		atLeast     bool // syntax recovery may report more than one problem
	}{
		{
			name: "include_directory_with_comments",
			files: map[string]string{
				"tsconfig.json": `{
	// only the sources
	"include": ["src"], /* trailing */
	"compilerOptions": { "outDir": "dist", },
}`,
				"src/a.ts":       "export const a: number = 1;\n",
				"src/types.d.ts": "declare const host: any;\n",
				"src/view.tsx":   "export const v = 1;\n",
				"other/b.ts":     "const b = 2;\n",
			},
			wantFiles:   []string{"src/a.ts", "src/types.d.ts"},
			wantWarning: 1,
		},
		{
			name: "default_include_and_excludes",
			files: map[string]string{
				"tsconfig.json":             `{"compilerOptions": {"outDir": "dist"}}`,
				"main.ts":                   "const m = 1;\n",
				"lib/util.ts":               "const u = 1;\n",
				"dist/main.ts":              "const stale = 1;\n",
				"node_modules/dep/index.ts": "const d = 1;\n",
				"readme.md":                 "# hi",
			},
			wantFiles: []string{"lib/util.ts", "main.ts"},
		},
		{
			name: "explicit_files_and_missing_file",
			files: map[string]string{
				"tsconfig.json": `{"files": ["./main.ts", "gone.ts"]}`,
				"main.ts":       "const m = 1;\n",
				"other.ts":      "const o = 1;\n",
			},
			wantFiles:  []string{"main.ts"},
			wantErrors: 1,
		},
		{
			name: "extends_rebases_paths",
			files: map[string]string{
				"tsconfig.json":     `{"extends": "./configs/base"}`,
				"configs/base.json": `{"include": ["../src/**/*.ts"]}`,
				"src/a.ts":          "const a = 1;\n",
				"top.ts":            "const t = 1;\n",
			},
			wantFiles: []string{"src/a.ts"},
		},
		{
			name: "no_inputs",
			files: map[string]string{
				"tsconfig.json": `{"include": ["src"]}`,
				"main.js":       "var a = 1;\n",
			},
			wantFiles:  []string{},
			wantErrors: 1,
		},
		{
			name: "syntax_errors_are_collected",
			files: map[string]string{
				"tsconfig.json": `{}`,
				"bad.ts":        "let a = ;\n",
				"good.ts":       "let b: string = 'x';\n",
			},
			wantFiles:  []string{"bad.ts", "good.ts"},
			wantErrors: 1,
			atLeast:    true,
		},
		{
			name: "invalid_config",
			files: map[string]string{
				"tsconfig.json": `{"include": [}`,
				"main.ts":       "const m = 1;\n",
			},
			wantFiles:  []string{},
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			testutils.WriteTree(t, root, tt.files)

			p, err := Load(testutils.Context(t, nil), root)
			require.NoError(t, err)
			require.NotNil(t, p)
			defer p.Close()

			assert.ElementsMatch(t, tt.wantFiles, p.Files())

			warnings := 0
			for _, d := range p.Diagnostics() {
				if d.Severity == SeverityWarning {
					warnings++
				}
			}
			if tt.atLeast {
				assert.GreaterOrEqual(t, CountErrors(p.Diagnostics()), tt.wantErrors, "errors: %v", p.Diagnostics())
			} else {
				assert.Equal(t, tt.wantErrors, CountErrors(p.Diagnostics()), "errors: %v", p.Diagnostics())
			}
			assert.Equal(t, tt.wantWarning, warnings, "warnings: %v", p.Diagnostics())
			assert.Equal(t, tt.wantErrors > 0, p.HasErrors())
		})
	}
}

func TestProgramEmit(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"tsconfig.json":  `{}`,
		"sub/main.ts":    "import type { T } from './t';\nexport const a: T = 1;\n",
		"sub/types.d.ts": "declare const host: any;\n",
	})

	p, err := Load(testutils.Context(t, nil), root)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.False(t, p.HasErrors(), "%v", p.Diagnostics())

	out, err := p.Emit("sub/main.ts")
	require.NoError(t, err)
	assert.Equal(t, "sub/main.js", out.Path)
	assert.Equal(t, "export const a = 1;\n", out.Text)

	assert.True(t, p.Contains("sub/types.d.ts"))
	assert.True(t, p.IsDeclaration("sub/types.d.ts"))
	_, err = p.Emit("sub/types.d.ts")
	require.Error(t, err)

	_, err = p.Emit("sub/missing.ts")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindInternal))

	require.NoError(t, p.Close())
	_, err = p.Emit("sub/main.ts")
	require.Error(t, err, "emit after close")
}

func TestStripJSONC(t *testing.T) {
	src := `{
	// comment with "quotes"
	"url": "http://example.com/*not a comment*/",
	"list": [1, 2, /* two */ 3,],
	"escaped": "a \" // b",
	"tail": true, // done
}`

	plain, err := StripJSONC([]byte(src))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(plain, &got))

	assert.Equal(t, "http://example.com/*not a comment*/", got["url"])
	assert.Equal(t, []any{1.0, 2.0, 3.0}, got["list"])
	assert.Equal(t, `a " // b`, got["escaped"])
	assert.Equal(t, true, got["tail"])
}

func TestStripJSONCManyTrailingComments(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 2000; i++ {
		b.WriteString("1, /* c */ ")
	}
	b.WriteString("]")

	plain, err := StripJSONC([]byte(b.String()))
	require.NoError(t, err)

	var got []int
	require.NoError(t, json.Unmarshal(plain, &got))
	assert.Len(t, got, 2000)
}

func TestStripJSONCInvalid(t *testing.T) {
	_, err := StripJSONC([]byte(`{"a": }`))
	assert.Error(t, err)
}

func TestNormalizeSpec(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{spec: "src", want: "src/**/*"},
		{spec: "./src/", want: "src/**/*"},
		{spec: "src/**/*.ts", want: "src/**/*.ts"},
		{spec: "main.ts", want: "main.ts"},
		{spec: ".", want: "**/*"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeSpec(tt.spec))
		})
	}
}
