package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces bursts of events from editors that write a file in
// several steps.
const reloadDelay = 100 * time.Millisecond

// Watch reloads the library from dir whenever a library file in it changes.
// onReload, if non-nil, is called after every reload attempt with its result;
// a failed reload leaves the previous contents in place. Watch performs an
// initial LoadDir once the watch is active and blocks until ctx is done.
func (l *Library) Watch(ctx context.Context, dir string, onReload func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if err := l.LoadDir(dir); err != nil {
		return err
	}
	l.logger.Info("watching prompt library", slog.String("dir", dir))

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isLibraryFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			err := l.LoadDir(dir)
			if err != nil {
				l.logger.Error("prompt library reload failed", slog.String("dir", dir), slog.Any("error", err))
			} else {
				l.logger.Info("prompt library reloaded", slog.String("dir", dir))
			}
			if onReload != nil {
				onReload(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("prompt library watch error", slog.Any("error", err))
		}
	}
}
