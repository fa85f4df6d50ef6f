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

package manifest

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

func TestVersion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "version", content: `{"id": "a", "version": "1.2.3"}`, want: "1.2.3"},
		{name: "no_version", content: `{"id": "a"}`, wantErr: true},
		{name: "invalid_json", content: `{"id": `, wantErr: true},
		{name: "missing_file", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.content != "" {
				testutils.WriteTree(t, root, map[string]string{FileName: tt.content})
			}

			got, err := Version(root)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteKeepsUnknownKeys(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		FileName: `{"id": "x", "version": "1.0.0", "type": "skin", "icon": "icon.png", "tags": ["a"]}`,
	})

	m, err := Read(root)
	require.NoError(t, err)
	assert.True(t, m.IsSkin())
	require.Contains(t, m.Extra, "icon")

	m.Version = "1.0.1"
	require.NoError(t, Write(root, m))

	data, err := os.ReadFile(filepath.Join(root, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\t\"icon\": \"icon.png\"")
	assert.Contains(t, string(data), "\"version\": \"1.0.1\"")

	again, err := Read(root)
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", again.Version)
	assert.Len(t, again.Extra, 2)
}

func TestDefaultID(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "My Cool Addon", want: "my_cool_addon"},
		{title: "  Lyrics & Stuff! ", want: "lyrics_stuff"},
		{title: "abc", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultID(tt.title))
		})
	}
}

func TestInit(t *testing.T) {
	root := filepath.Join(t.TempDir(), "my-addon")
	require.NoError(t, os.MkdirAll(root, 0o755))

	answers := strings.Join([]string{
		"Lyrics Finder", // title
		"",              // id, derived
		"Finds lyrics",  // description
		"",              // version, default
		"general",       // type
		"someone",       // author
		"5.0.0",         // min app version
	}, "\n") + "\n"

	var out bytes.Buffer
	m, err := Init(testutils.Context(t, nil), root, prompt.NewConsole(strings.NewReader(answers), &out))
	require.NoError(t, err)

	assert.Equal(t, "lyrics_finder", m.ID)
	assert.Equal(t, DefaultVersion, m.Version)

	read, err := Read(root)
	require.NoError(t, err)
	assert.Equal(t, "Lyrics Finder", read.Title)
	assert.Equal(t, "Finds lyrics", read.Description)
	assert.Equal(t, "5.0.0", read.MinAppVersion)
	assert.Contains(t, out.String(), "Title (my-addon)")
}

func TestInitExisting(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		root := t.TempDir()
		testutils.WriteTree(t, root, map[string]string{FileName: `{"id": "keep", "version": "2.0.0"}`})

		_, err := Init(testutils.Context(t, nil), root, prompt.NewConsole(strings.NewReader("n\n"), &bytes.Buffer{}))
		require.Error(t, err)
		assert.True(t, fault.Is(err, fault.KindDeclined))

		m, err := Read(root)
		require.NoError(t, err)
		assert.Equal(t, "keep", m.ID)
	})

	t.Run("confirmed_offers_existing_values", func(t *testing.T) {
		root := t.TempDir()
		testutils.WriteTree(t, root, map[string]string{FileName: `{"title": "Old", "id": "keep", "version": "2.0.0", "type": "skin"}`})

		m, err := Init(testutils.Context(t, nil), root, prompt.Auto{})
		require.NoError(t, err)
		assert.Equal(t, "Old", m.Title)
		assert.Equal(t, "keep", m.ID)
		assert.Equal(t, "2.0.0", m.Version)
		assert.Equal(t, "skin", m.Type)
	})
}
