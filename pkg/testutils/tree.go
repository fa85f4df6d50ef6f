// Package testutils holds helpers shared by package tests: temporary project
// trees, a logging context and archive readers.
package testutils

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/walteh/packmmip/pkg/log"
)

// WriteTree creates files under root. Keys are slash separated relative
// paths; a key ending in "/" creates an empty directory.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			require.NoError(t, os.MkdirAll(full, 0o755), "creating dir %s", rel)
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755), "creating parent of %s", rel)
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644), "writing %s", rel)
	}
}

// Context returns a context carrying a zerolog test logger and a console
// logger writing to console (io.Discard when nil).
func Context(t testing.TB, console io.Writer) context.Context {
	t.Helper()

	if console == nil {
		console = io.Discard
	}

	zlog := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	ctx := zlog.WithContext(context.Background())
	return log.NewContext(ctx, log.New(console, zlog))
}

// ReadZip returns the entries of the archive at path keyed by name
func ReadZip(t testing.TB, path string) map[string]string {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err, "opening archive")
	defer r.Close()

	out := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err, "opening entry %s", f.Name)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err, "reading entry %s", f.Name)
		out[f.Name] = string(data)
	}
	return out
}

// ZipNames returns the sorted entry names of the archive at path
func ZipNames(t testing.TB, path string) []string {
	t.Helper()

	entries := ReadZip(t, path)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
