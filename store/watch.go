package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hamidzr/surferh/model"
)

// ErrWatchUnsupported is returned when the slot backend cannot report changes.
var ErrWatchUnsupported = errors.New("slot backend does not support watching")

// Watchable is implemented by slots that can notify about external writes.
type Watchable interface {
	Watch(ctx context.Context, key string, debounce time.Duration, onChange func()) error
}

// Watch calls onChange after the file backing key is written, renamed into
// place or removed. Bursts of events within debounce collapse into one call.
// onChange runs on the calling goroutine, so calls never overlap and none is
// in flight once Watch returns. It blocks until ctx is done.
func (fs *FileSlot) Watch(ctx context.Context, key string, debounce time.Duration, onChange func()) error {
	if err := validKey(key); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer watcher.Close()

	target, err := filepath.Abs(fs.Path(key))
	if err != nil {
		return errors.Wrap(err, "resolving slot path")
	}
	// editors and atomic writers replace the file, so watch the directory
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "watching %s", filepath.Dir(target))
	}

	// one timer owned by this loop; onChange runs here, never concurrently
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			onChange()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Reset drops an unreceived tick since go1.23
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logrus.WithError(err).Warn("settings watcher error")
		}
	}
}

// Watch reloads settings whenever another writer changes the slot and hands
// the freshly loaded value to onChange. The last writer wins.
func (s *SettingsStore) Watch(ctx context.Context, debounce time.Duration, onChange func(model.AgentSettings)) error {
	w, ok := s.slot.(Watchable)
	if !ok {
		return ErrWatchUnsupported
	}
	return w.Watch(ctx, s.key, debounce, func() {
		onChange(s.Load())
	})
}
