// Package watcher drives re-analysis in watch mode: it observes a source
// tree with fsnotify and emits one debounced change notification per burst
// of file events, so rapid editor saves trigger a single re-upload.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/archive"
)

// DefaultQuietPeriod is how long the tree must stay quiet before a change
// notification fires.
const DefaultQuietPeriod = 500 * time.Millisecond

// Watcher observes a source tree for changes to analyzable files.
type Watcher struct {
	fsw     *fsnotify.Watcher
	root    string
	quiet   time.Duration
	changes chan struct{}
}

// New creates a watcher for the source tree at root. A non-positive quiet
// period falls back to DefaultQuietPeriod.
func New(root string, quiet time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Watcher{
		fsw:     fsw,
		root:    root,
		quiet:   quiet,
		changes: make(chan struct{}, 1),
	}, nil
}

// Start registers the directory tree and begins emitting notifications.
// It returns after registration; event processing runs until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtrees are simply not watched
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && archive.SkippedDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	go w.run(ctx)
	return nil
}

// Changes returns the debounced notification channel. One receive means the
// tree changed at least once since the last notification.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			// New directories must be registered to see their files.
			if ev.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = w.fsw.Add(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.quiet)
				fire = timer.C
			} else {
				// A tick may already sit in the channel if the timer
				// fired while an event was being handled; drain it so
				// Reset starts a full quiet period.
				if !timer.Stop() {
					select {
					case <-fire:
					default:
					}
				}
				timer.Reset(w.quiet)
			}

		case <-fire:
			timer = nil
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default: // a notification is already pending
			}

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// relevant filters events down to analyzable source files and directory
// creation inside the watched tree.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if archive.SkippedDir(base) {
		return false
	}
	if archive.Analyzable(base) {
		return true
	}
	// Directory events have no extension; creation may introduce sources.
	return ev.Op.Has(fsnotify.Create) && filepath.Ext(base) == ""
}
