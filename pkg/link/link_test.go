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

package link

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/packmmip/pkg/fault"
	"github.com/walteh/packmmip/pkg/prompt"
	"github.com/walteh/packmmip/pkg/testutils"
)

func TestResolveFolder(t *testing.T) {
	tests := []struct {
		name    string
		dirs    []string
		input   string // relative to the temp dir
		want    string
		wantErr bool
	}{
		{name: "appends_sub", dirs: []string{"MM5/Scripts/"}, input: "MM5", want: "MM5/Scripts"},
		{name: "already_sub", dirs: []string{"MM5/Scripts/"}, input: "MM5/Scripts", want: "MM5/Scripts"},
		{name: "case_insensitive_sub", dirs: []string{"MM5/scripts/"}, input: "MM5/scripts", want: "MM5/scripts"},
		{name: "portable_wins", dirs: []string{"MM5/Scripts/", "MM5/Portable/Scripts/"}, input: "MM5", want: "MM5/Portable/Scripts"},
		{name: "missing_sub", dirs: []string{"MM5/"}, input: "MM5", wantErr: true},
		{name: "missing_folder", input: "MM5/Scripts", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			tree := map[string]string{}
			for _, d := range tt.dirs {
				tree[d] = ""
			}
			testutils.WriteTree(t, base, tree)

			got, err := ResolveFolder(testutils.Context(t, nil), filepath.Join(base, tt.input), ScriptsFolder)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, fault.Is(err, fault.KindInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(base, filepath.FromSlash(tt.want)), got)
		})
	}
}

func TestDefaultDataFolder(t *testing.T) {
	appData := t.TempDir()
	opts := Options{AppData: appData, InstallDir: "/opt/mm5"}

	assert.Equal(t, filepath.Join("/opt/mm5", SkinsFolder), DefaultDataFolder(opts, SkinsFolder))

	testutils.WriteTree(t, appData, map[string]string{"MediaMonkey5/Skins/": ""})
	assert.Equal(t, filepath.Join(appData, "MediaMonkey5", SkinsFolder), DefaultDataFolder(opts, SkinsFolder))
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		answers  string
		wantSub  string
		wantKind fault.Kind
		wantErr  bool
	}{
		{
			name:     "script",
			manifest: `{"id": "lyrics", "type": "general"}`,
			answers:  "\ny\n",
			wantSub:  ScriptsFolder,
		},
		{
			name:     "skin",
			manifest: `{"id": "dark", "type": "skin"}`,
			answers:  "\n\n",
			wantSub:  SkinsFolder,
		},
		{
			name:     "declined",
			manifest: `{"id": "lyrics"}`,
			answers:  "\nn\n",
			wantErr:  true,
			wantKind: fault.KindDeclined,
		},
		{
			name:     "missing_id",
			manifest: `{"title": "x"}`,
			wantErr:  true,
			wantKind: fault.KindInput,
		},
		{
			name:     "missing_manifest",
			wantErr:  true,
			wantKind: fault.KindInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := t.TempDir()
			if tt.manifest != "" {
				testutils.WriteTree(t, project, map[string]string{"info.json": tt.manifest})
			}

			appData := t.TempDir()
			testutils.WriteTree(t, appData, map[string]string{
				"MediaMonkey5/Scripts/": "",
				"MediaMonkey5/Skins/":   "",
			})

			opts := Options{Project: project, AppData: appData, InstallDir: t.TempDir()}
			p := prompt.NewConsole(strings.NewReader(tt.answers), &bytes.Buffer{})

			got, err := Create(testutils.Context(t, nil), opts, p)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, fault.Is(err, tt.wantKind), "got %v", err)
				return
			}
			require.NoError(t, err)

			target, err := os.Readlink(got)
			require.NoError(t, err)
			assert.Equal(t, project, target)
			assert.Equal(t, tt.wantSub, filepath.Base(filepath.Dir(got)))
		})
	}
}

func TestCreateExistingLink(t *testing.T) {
	project := t.TempDir()
	testutils.WriteTree(t, project, map[string]string{"info.json": `{"id": "lyrics"}`})

	appData := t.TempDir()
	testutils.WriteTree(t, appData, map[string]string{"MediaMonkey5/Scripts/lyrics/": ""})

	_, err := Create(testutils.Context(t, nil), Options{Project: project, AppData: appData}, prompt.Auto{})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindWrite))
	assert.NotEmpty(t, fault.HintOf(err))
}
