package layout

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce coalesces the burst of fsnotify events an editor save or
// directory sync produces into one reload.
const reloadDebounce = 300 * time.Millisecond

// ReloadFunc loads and validates the layout directories and returns the
// configurations for the new snapshot. Returning an error keeps the previous
// snapshot in place.
type ReloadFunc func() error

// Watcher hot-reloads the layout registry when files under the watched
// directories change.
type Watcher struct {
	dirs   []string
	reload ReloadFunc
	logger *zap.Logger
}

// NewWatcher creates a Watcher over the given directories.
func NewWatcher(dirs []string, reload ReloadFunc, logger *zap.Logger) *Watcher {
	return &Watcher{dirs: dirs, reload: reload, logger: logger}
}

// Run watches until ctx is cancelled. Reloads are debounced; a failed reload
// logs the error and keeps serving the previous snapshot.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return err
		}
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !IsLayoutFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("layout watcher error", zap.Error(err))

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.reload(); err != nil {
				w.logger.Error("layout reload failed, keeping previous snapshot", zap.Error(err))
				continue
			}
			w.logger.Info("layout registry reloaded")
		}
	}
}
