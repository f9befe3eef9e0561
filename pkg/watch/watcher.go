// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces bursts of writes to the watched file.
const DefaultDebounce = 100 * time.Millisecond

// FileWatcher reports changes to a single listing file.
//
// fsnotify watches directories, so the parent directory is watched and
// events are filtered by base name. Editors that replace the file show up
// as Create and are handled the same as Write.
type FileWatcher struct {
	path    string
	watcher *fsnotify.Watcher

	debounceDelay time.Duration
	logger        zerolog.Logger

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewFileWatcher starts watching path's directory. Events are delivered
// once Start is called.
func NewFileWatcher(path string, logger zerolog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &FileWatcher{
		path:          abs,
		watcher:       w,
		debounceDelay: DefaultDebounce,
		logger:        logger.With().Str("component", "watch.file").Logger(),
	}, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string { return w.path }

// Start blocks until ctx is canceled, calling onChange after each debounced
// burst of writes. It closes the underlying watcher on return.
func (w *FileWatcher) Start(ctx context.Context, onChange func()) error {
	name := filepath.Base(w.path)
	w.logger.Debug().Str("file", w.path).Dur("debounce", w.debounceDelay).Msg("Started watching listing file")

	defer func() {
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				w.logger.Trace().Str("op", event.Op.String()).Msg("Detected listing change")
				w.schedule(onChange)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (w *FileWatcher) schedule(onChange func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, onChange)
}

// Close releases the watcher without waiting for Start.
func (w *FileWatcher) Close() error {
	return w.watcher.Close()
}
