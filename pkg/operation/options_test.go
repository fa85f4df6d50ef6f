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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/packmmip/pkg/config"
	"github.com/walteh/packmmip/pkg/testutils"
)

func TestResolveDestination(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		manifest    string
		want        string // relative to the work dir
		wantWarning bool
	}{
		{
			name: "defaults_to_folder_name",
			opts: Options{Root: "MyAddon"},
			want: "MyAddon.mmip",
		},
		{
			name: "zip_format",
			opts: Options{Root: "MyAddon", Format: FormatZip},
			want: "MyAddon.zip",
		},
		{
			name: "explicit_name_with_trailing_separators",
			opts: Options{Root: "MyAddon", Output: `out/Thing/\`},
			want: "out/Thing.mmip",
		},
		{
			name: "extension_not_doubled",
			opts: Options{Root: "MyAddon", Output: "Thing.mmip"},
			want: "Thing.mmip",
		},
		{
			name: "other_extension_is_kept_and_forced",
			opts: Options{Root: "MyAddon", Output: "Thing.zip"},
			want: "Thing.zip.mmip",
		},
		{
			name:     "append_version",
			opts:     Options{Root: "MyAddon", AppendVersion: true},
			manifest: `{"id": "my", "version": "1.2.3"}`,
			want:     "MyAddon-1.2.3.mmip",
		},
		{
			name:        "append_version_without_manifest",
			opts:        Options{Root: "MyAddon", AppendVersion: true},
			want:        "MyAddon.mmip",
			wantWarning: true,
		},
		{
			name: "put_into_bin",
			opts: Options{Root: "MyAddon", Output: "dist/Thing", PutIntoBin: true, Format: FormatZip},
			want: "dist/bin/Thing.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wd := t.TempDir()
			testutils.WriteTree(t, wd, map[string]string{"MyAddon/": ""})
			if tt.manifest != "" {
				testutils.WriteTree(t, wd, map[string]string{"MyAddon/info.json": tt.manifest})
			}

			opts := tt.opts
			opts.WorkDir = wd

			var console bytes.Buffer
			got, err := ResolveDestination(testutils.Context(t, &console), opts)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(wd, filepath.FromSlash(tt.want)), got)

			if tt.wantWarning {
				assert.Contains(t, console.String(), "Could not read info.json")
			}
			if opts.PutIntoBin {
				info, err := os.Stat(filepath.Dir(got))
				require.NoError(t, err, "bin folder should be created")
				assert.True(t, info.IsDir())
			}
		})
	}
}

func TestResolveDestinationAbsoluteRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Skin")
	wd := t.TempDir()

	got, err := ResolveDestination(testutils.Context(t, nil), Options{Root: root + string(filepath.Separator), WorkDir: wd})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "Skin.mmip"), got, "the archive lands in the working directory")
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(&config.Config{
		OpenAfterComplete: config.Bool(true),
		PutFileIntoBin:    config.Bool(false),
		ImportPrefix:      "host/",
	})
	assert.True(t, opts.OpenAfterComplete)
	assert.False(t, opts.PutIntoBin)
	assert.True(t, opts.Compile, "compile defaults to on")
	assert.Equal(t, "host/", opts.ImportPrefix)

	opts = OptionsFromConfig(&config.Config{Compile: config.Bool(false)})
	assert.False(t, opts.Compile)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, ".mmip", FormatMMIP.Ext())
	assert.Equal(t, ".zip", FormatZip.Ext())
	assert.Equal(t, "zip", FormatZip.String())
}
