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

package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "yes_word_mixed_case", input: "  Yes please\n", want: true},
		{name: "no", input: "n\n", def: true, want: false},
		{name: "blank_takes_default_true", input: "\n", def: true, want: true},
		{name: "blank_takes_default_false", input: "\r\n", def: false, want: false},
		{name: "no_trailing_newline", input: "y", want: true},
		{name: "closed_input_declines", input: "", def: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConsole(strings.NewReader(tt.input), &out)

			got, err := c.Confirm(context.Background(), "Overwrite?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Overwrite?")
		})
	}
}

func TestConsoleInput(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("My Addon\n\n"), &out)
	ctx := context.Background()

	got, err := c.Input(ctx, "Title", "")
	require.NoError(t, err)
	assert.Equal(t, "My Addon", got)

	got, err = c.Input(ctx, "Version", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", got)
	assert.Contains(t, out.String(), "Version (1.0.0): ")

	got, err = c.Input(ctx, "Author", "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", got, "closed input takes the default")
}

func TestConsoleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewConsole(strings.NewReader("y\n"), &bytes.Buffer{})
	_, err := c.Confirm(ctx, "Overwrite?", true)
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	p := New(true, strings.NewReader(""), &bytes.Buffer{})
	ok, err := p.Confirm(context.Background(), "Overwrite?", false)
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := p.Input(context.Background(), "Version", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v)

	assert.IsType(t, &Console{}, New(false, strings.NewReader(""), &bytes.Buffer{}))
}
