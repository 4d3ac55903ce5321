package loader

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce suppresses repeated events for the same file, editors often write twice.
const reloadDebounce = 100 * time.Millisecond

// ReloadEvent reports a pose asset that changed on disk.
type ReloadEvent struct {
	// Path is the file that changed.
	Path string

	// Name is the pose name that was reloaded or removed.
	Name string

	// Removed is true when the file disappeared and its cache entry was dropped.
	Removed bool

	// Err is set when the file changed but could not be reloaded.
	Err error
}

// Watch reloads pose assets in the loader's directory as they change on disk, until ctx is
// cancelled. Each reload is reported on the returned channel, which is closed when watching
// stops.
//
// Parameters:
//   - ctx: cancels the watch
//   - l: the loader whose Dir() is watched
//
// Returns:
//   - <-chan ReloadEvent: reload notifications
//   - error: error if the watcher cannot be created
func Watch(ctx context.Context, l Loader) (<-chan ReloadEvent, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(l.Dir()); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan ReloadEvent, 16)
	go func() {
		defer close(out)
		defer w.Close()

		last := make(map[string]time.Time)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if !IsPoseFile(event.Name) {
					continue
				}
				now := time.Now()
				if t, ok := last[event.Name]; ok && now.Sub(t) < reloadDebounce {
					continue
				}
				last[event.Name] = now

				ev := reload(l, event.Name)
				if ev.Err != nil {
					// a half-written file fails to decode; let the follow-up write through
					delete(last, event.Name)
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("[Loader] watch error: %v", err)
			}
		}
	}()
	return out, nil
}

func reload(l Loader, path string) ReloadEvent {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		name := l.Forget(path)
		log.Printf("[Loader] pose %q removed (%s)", name, filepath.Base(path))
		return ReloadEvent{Path: path, Name: name, Removed: true}
	}
	asset, err := l.Load(path)
	if err != nil {
		log.Printf("[Loader] reload %s failed: %v", path, err)
		return ReloadEvent{Path: path, Err: err}
	}
	log.Printf("[Loader] reloaded pose %q", asset.Pose.Name)
	return ReloadEvent{Path: path, Name: asset.Pose.Name}
}
