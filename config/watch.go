package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDur = 200 * time.Millisecond

// Watch reloads the config file whenever it changes and passes the new
// value to onChange. The directory is watched so that editors which replace
// the file are noticed. Watch blocks until ctx is done.
func Watch(ctx context.Context, onChange func(Config)) error {
	path := Path()
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounceDur)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounceDur)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zap.L().Warn("config watcher error", zap.Error(err))

		case <-timer.C:
			newCfg, err := LoadConfig()
			if err != nil {
				zap.L().Warn("config reload failed; keeping previous settings", zap.String("path", path), zap.Error(err))
				continue
			}
			zap.L().Info("config reloaded", zap.String("path", path))
			if onChange != nil {
				onChange(newCfg)
			}
		}
	}
}
