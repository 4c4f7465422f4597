// Package watcher reloads the seed scene when its file changes on disk.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"canvasgroup/internal/domain"
	"canvasgroup/internal/loader"
)

// Reloader receives every successfully parsed version of the scene
type Reloader func(ctx context.Context, scene *domain.Scene) error

// Watcher watches a scene file for changes
type Watcher struct {
	path     string
	reload   Reloader
	debounce time.Duration
	load     func(path string) (*domain.Scene, error)
}

// New creates a new scene watcher
func New(path string, reload Reloader) *Watcher {
	return &Watcher{
		path:     path,
		reload:   reload,
		debounce: 500 * time.Millisecond,
		load:     loader.LoadScene,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch starts watching the file for changes.
// It blocks until the context is cancelled or an error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory containing the file
	// This handles cases where the file is replaced (e.g., by editors)
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)

	if err := watcher.Add(dir); err != nil {
		return err
	}

	log.Printf("Watching %s for changes", w.path)

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// Debounce rapid changes
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
			} else {
				debounce.Reset(w.debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			w.reloadNow(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reloadNow parses the file and hands it on. A file that fails to parse or
// build leaves the current tree in place.
func (w *Watcher) reloadNow(ctx context.Context) {
	log.Printf("File changed: %s", w.path)
	scene, err := w.load(w.path)
	if err != nil {
		log.Printf("Scene reload skipped: %v", err)
		return
	}
	if err := w.reload(ctx, scene); err != nil {
		log.Printf("Scene reload failed: %v", err)
	}
}
