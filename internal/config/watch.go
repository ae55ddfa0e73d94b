package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
)

// reloadDelay debounces bursts of events written by editors.
const reloadDelay = 100 * time.Millisecond

// Watcher reloads a configuration file when it changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	flags    *pflag.FlagSet
	logger   *slog.Logger
	onChange func(*Config)
}

// NewWatcher registers a watch on the directory of path. Changes made
// after NewWatcher returns are seen by Run.
func NewWatcher(path string, flags *pflag.FlagSet, logger *slog.Logger, onChange func(*Config)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors often replace the file, so the directory is watched.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return &Watcher{watcher: watcher, path: path, flags: flags, logger: logger, onChange: onChange}, nil
}

// Watch reloads the configuration whenever the file at path changes
// and passes the new value to onChange. Invalid files are logged and
// ignored. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, flags *pflag.FlagSet, logger *slog.Logger, onChange func(*Config)) error {
	w, err := NewWatcher(path, flags, logger, onChange)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Run handles file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()
	reload := func() {
		cfg, err := Load(w.path, w.flags)
		if err != nil {
			w.logger.Error("config reload failed", "file", w.path, "error", err)
			return
		}
		w.logger.Info("config reloaded", "file", w.path)
		w.onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, reload)
			mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}
