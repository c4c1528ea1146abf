package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval batches the burst of events an editor save produces.
const DebounceInterval = 200 * time.Millisecond

// Watch delivers a freshly loaded Config every time the file at path changes.
// The parent directory is watched, so files replaced by rename are seen too.
// Invalid files are logged and skipped. The channel closes when ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger) (<-chan *Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	out := make(chan *Config)
	go func() {
		defer close(out)
		defer watcher.Close()

		timer := time.NewTimer(DebounceInterval)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if name, _ := filepath.Abs(event.Name); name != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer.Reset(DebounceInterval)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error", "err", err)

			case <-timer.C:
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("Ignoring invalid config change", "path", path, "err", err)
					continue
				}
				logger.Info("Config reloaded", "path", path)
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
