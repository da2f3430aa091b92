// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces editor write bursts into one reload.
const watchDebounce = 500 * time.Millisecond

// watcher re-reads the config file when another process modifies it.
// The store is shared mutable state between terminals; caching it
// indefinitely would serve a token or base URL another writer already
// replaced.
type watcher struct {
	store    *Store
	fs       *fsnotify.Watcher
	mu       sync.Mutex
	pending  bool
	lastSeen time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

// Watch starts watching the backing file for external modification.
// The optional onChange callback fires after each successful reload.
func (s *Store) Watch(onChange func()) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory, not the file: atomic saves replace the file by
	// rename, which would silently drop a watch on the old inode.
	if err := fs.Add(filepath.Dir(s.path)); err != nil {
		fs.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{store: s, fs: fs, ctx: ctx, cancel: cancel}

	s.mu.Lock()
	s.watcher = w
	s.onChange = onChange
	s.mu.Unlock()

	go w.processEvents()
	go w.processPending()
	return nil
}

// CloseWatch stops the file watcher. Safe to call when none is running.
func (s *Store) CloseWatch() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	w.cancel()
	return w.fs.Close()
}

func (w *watcher) processEvents() {
	target := filepath.Clean(w.store.path)
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = true
				w.lastSeen = time.Now()
				w.mu.Unlock()
			}

		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *watcher) processPending() {
	ticker := time.NewTicker(watchDebounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			fire := w.pending && time.Since(w.lastSeen) >= watchDebounce
			if fire {
				w.pending = false
			}
			w.mu.Unlock()

			if !fire {
				continue
			}
			if err := w.store.reload(); err != nil {
				continue
			}
			w.store.mu.RLock()
			cb := w.store.onChange
			w.store.mu.RUnlock()
			if cb != nil {
				cb()
			}
		}
	}
}
