package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceTime coalesces the write+rename bursts editors produce.
const debounceTime = 200 * time.Millisecond

// Watch reloads the host whenever its file changes on disk and reports the
// new value through onChange. It returns a stop function. The directory is
// watched rather than the file itself because editors replace files by
// rename.
func (h *Host) Watch(ctx context.Context, logger *zap.Logger, onChange func(string)) (func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching config dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		fire := func() {
			host, err := h.Reload()
			if err != nil {
				logger.Warn("host file reload failed", zap.Error(err))
				return
			}
			logger.Info("host file changed", zap.String("host", host))
			if onChange != nil {
				onChange(host)
			}
		}

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
				if filepath.Base(event.Name) != hostFileName {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceTime, fire)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()

	return cancel, nil
}
