// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// LayoutWatcher watches a persisted graph-layout file and calls back
// whenever it changes on disk, so an editor external to the running
// process can trigger a rebuild — file-based hot reload alongside the
// in-process AddNode/AddConnection API.
type LayoutWatcher struct {
	watcher *fsnotify.Watcher
	path    string

	mu      sync.Mutex
	closed  bool
}

// WatchLayout starts watching path, invoking onChange (on a background
// goroutine) every time the file is written or recreated. Call Close to
// stop watching.
func WatchLayout(path string, onChange func()) (*LayoutWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	lw := &LayoutWatcher{watcher: w, path: path}
	go lw.loop(onChange)
	return lw, nil
}

func (lw *LayoutWatcher) loop(onChange func()) {
	for {
		select {
		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				Logger().Info("layout file changed on disk", "path", lw.path)
				onChange()
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// Editors often replace-via-rename; re-add so the watch
				// survives the swap.
				_ = lw.watcher.Add(lw.path)
			}
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			Logger().Warn("layout watcher error", "err", err)
		}
	}
}

// Close stops the watcher.
func (lw *LayoutWatcher) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.closed {
		return nil
	}
	lw.closed = true
	return lw.watcher.Close()
}
