package monitor

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"mkvauto/internal/config"
	"mkvauto/internal/logging"
)

const reloadDebounce = 500 * time.Millisecond

// watchConfig re-reads path after it changes and sends the result on out.
// Editors replace files, so the parent directory is watched.
func watchConfig(ctx context.Context, path string, logger *slog.Logger, out chan<- *config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var (
			timer *time.Timer
			fire  <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				cfg, _, _, err := config.Load(path)
				if err != nil {
					logging.WarnWithContext(logger, "config reload failed", "config_reload_failed",
						logging.Error(err),
						logging.String("config_path", path),
						logging.String(logging.FieldErrorHint, "fix the config file; the previous settings stay active"),
						logging.String(logging.FieldImpact, "config changes ignored"),
					)
					continue
				}
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("config watcher error", logging.Error(err))
			}
		}
	}()
	return nil
}
