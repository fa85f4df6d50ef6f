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

// Package watch re-runs a callback when files in a project change. Events
// for paths the project's ignore rules exclude are dropped, and bursts of
// events are coalesced into one call.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/ignore"
	"github.com/walteh/packmmip/pkg/log"
)

// DefaultDebounce is the quiet period after the last event before a rebuild
const DefaultDebounce = 500 * time.Millisecond

// ⚙️ Config holds the parameters for a Watcher
type Config struct {
	Root        string // project folder
	Destination string // archive being written, never triggers a rebuild
	Debounce    time.Duration

	// OnChange gets the sorted, deduplicated paths that changed, relative
	// to Root
	OnChange func(ctx context.Context, changed []string) error
}

// 👀 Watcher fires Config.OnChange after files under Root change. Run must
// be called once.
type Watcher struct {
	cfg      Config
	root     string
	rules    *ignore.Rules
	fsw      *fsnotify.Watcher
	debounce time.Duration
	started  atomic.Bool
}

// 🏭 New registers every directory under cfg.Root that the ignore rules keep
func New(ctx context.Context, cfg Config) (*Watcher, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.Errorf("resolving watch root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Errorf("reading watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("watch root %s is not a directory", root)
	}

	rules, err := ignore.Load(ctx, root, cfg.Destination)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating file watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		cfg:      cfg,
		root:     root,
		rules:    rules,
		fsw:      fsw,
		debounce: debounce,
	}

	if err := w.addDirectories(ctx); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// 🔄 Run blocks until ctx is done. A change that arrives while OnChange is
// still running is rescheduled, never dropped.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watcher already running")
	}

	logger := log.FromContext(ctx)
	zlog := zerolog.Ctx(ctx)

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			zlog.Debug().Msg("rebuild in progress, rescheduling")
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := make([]string, 0, len(pending))
		for rel := range pending {
			changed = append(changed, rel)
		}
		clear(pending)
		mu.Unlock()

		sort.Strings(changed)

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				logger.Errorf("Rebuild failed: %v", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			zlog.Warn().Err(err).Msg("closing file watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("file watcher closed unexpectedly")
			}

			rel, ok := w.relevant(ctx, evt)
			if !ok {
				continue
			}

			zlog.Debug().Str("path", rel).Str("op", evt.Op.String()).Msg("change detected")

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("file watcher closed unexpectedly")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warning("Too many changes at once, some may have been missed")
				continue
			}
			zlog.Warn().Err(err).Msg("file watcher error")
		}
	}
}

// relevant maps an event to its root-relative path and reports whether it
// should trigger a rebuild. New directories are added to the watch list.
func (w *Watcher) relevant(ctx context.Context, evt fsnotify.Event) (string, bool) {
	if evt.Op == fsnotify.Chmod {
		return "", false
	}

	rel, err := filepath.Rel(w.root, evt.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	info, statErr := os.Stat(evt.Name)
	isDir := statErr == nil && info.IsDir()

	if w.rules.Match(rel, isDir) {
		return "", false
	}

	if isDir && evt.Has(fsnotify.Create) {
		if err := w.addDirectories(ctx, evt.Name); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("dir", rel).Msg("watching new directory")
		}
	}

	return rel, true
}

// addDirectories registers the directories below start, the root when start
// is empty, skipping the ones the rules ignore
func (w *Watcher) addDirectories(ctx context.Context, start ...string) error {
	from := w.root
	if len(start) > 0 {
		from = start[0]
	}

	zlog := zerolog.Ctx(ctx)

	err := filepath.WalkDir(from, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			zlog.Warn().Err(walkErr).Str("path", p).Msg("skipping unreadable path")
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return nil
		}
		if rel != "." && w.rules.Prunes(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(p); err != nil {
			return errors.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return errors.Errorf("walking %s: %w", from, err)
	}
	return nil
}
