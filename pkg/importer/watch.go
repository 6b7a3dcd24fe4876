package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before it is re-imported
const DefaultDebounce = 500 * time.Millisecond

// Watch imports recipe files in dir as they are created or written, until
// ctx is cancelled. Bursts of events for one file collapse into a single
// import once the file has been quiet for debounce.
func (im *Importer) Watch(ctx context.Context, dir string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	im.log.Infof("Watching %s for recipe files", dir)

	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !IsRecipeFile(event.Name) {
				continue
			}
			path := event.Name
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(debounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(timers, path)
			if _, err := im.ImportFile(ctx, path); err != nil {
				im.log.Warnf("Failed to import %s: %v", path, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.log.Warnf("Watcher error: %v", err)
		}
	}
}
