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

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/packmmip/pkg/testutils"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 16)}
}

func (r *recorder) onChange(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.ch <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild")
	}
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func start(t *testing.T, root string, rec *recorder) func() {
	t.Helper()

	ctx, cancelCtx := context.WithCancel(testutils.Context(t, nil))

	w, err := New(ctx, Config{
		Root:        root,
		Destination: filepath.Join(root, "Addon.mmip"),
		Debounce:    100 * time.Millisecond,
		OnChange:    rec.onChange,
	})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	return func() {
		cancelCtx()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	}
}

func TestWatcherDebounce(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	stop := start(t, root, rec)
	defer stop()

	for _, name := range []string{"a.js", "b.js", "c.js"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("var x;\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	rec.wait(t)
	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"a.js", "b.js", "c.js"}, calls[0])
}

func TestWatcherIgnoresExcludedPaths(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".mmipignore": "*.log\nbuild/\n",
		"build/":      "",
	})

	rec := newRecorder()
	stop := start(t, root, rec)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "debug.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "out.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Addon.mmip"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.js"), []byte("x"), 0o644))

	rec.wait(t)
	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"main.js"}, calls[0])
}

func TestWatcherNewDirectory(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	stop := start(t, root, rec)
	defer stop()

	require.NoError(t, os.Mkdir(filepath.Join(root, "lib"), 0o755))
	rec.wait(t)

	// let the new directory registration settle before writing into it
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "util.js"), []byte("x"), 0o644))
	rec.wait(t)

	calls := rec.snapshot()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1], "lib/util.js")
}

func TestWatcherRunTwice(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(testutils.Context(t, nil))
	defer cancel()

	w, err := New(ctx, Config{Root: root})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return w.started.Load() }, time.Second, 10*time.Millisecond)
	assert.Error(t, w.Run(ctx))

	cancel()
	assert.NoError(t, <-done)
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New(testutils.Context(t, nil), Config{Root: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
