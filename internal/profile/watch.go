// Filename: internal/profile/watch.go
package profile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the profile at path whenever it is written or replaced and
// hands every valid result to onChange. Invalid edits are logged and skipped,
// the previous profile stays in effect. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file, so editors that save
// by rename are still seen.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(*Profile)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("profile: create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("profile: resolve %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("profile: watch %s: %w", filepath.Dir(abs), err)
	}
	logger = logger.With(zap.String("profile_path", abs))
	logger.Debug("Watching profile for changes.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			p, err := Load(abs)
			if err != nil {
				logger.Warn("Ignoring profile change that failed to load.", zap.Error(err))
				continue
			}
			logger.Info("Profile reloaded.", zap.String("profile", p.Name))
			onChange(p)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Profile watcher error.", zap.Error(err))
		}
	}
}
