// Package watcher observes an input tree and fires a debounced callback
// after filesystem activity settles.
//
// The watcher deliberately avoids per-file stability tracking (size checks,
// timestamps, one timer per file). Filesystem activity is treated as a noisy
// signal: any file event under the tree arms or re-arms a single timer, and
// only a full quiet period of stableDelay fires the callback, once. The
// caller is expected to re-scan the whole tree in response.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kelno/audio-journal-transcriber/internal/logging"
)

// Watcher debounces filesystem events under a directory tree into single
// callback invocations.
type Watcher struct {
	root     string
	quiet    time.Duration
	callback func()
	logger   *slog.Logger

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a watcher over root. The callback fires after no file activity
// has been seen for quiet. It is invoked from the watcher's own goroutine
// and never concurrently with itself.
func New(root string, quiet time.Duration, callback func(), logger *slog.Logger) (*Watcher, error) {
	if quiet <= 0 {
		quiet = 5 * time.Second
	}
	if callback == nil {
		return nil, errors.New("watcher: nil callback")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		root:     root,
		quiet:    quiet,
		callback: callback,
		logger:   logging.WithComponent(logger, "watcher"),
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start registers watches for the whole tree and begins delivering events.
func (w *Watcher) Start() error {
	if err := w.watchTree(w.root); err != nil {
		w.fsw.Close()
		return err
	}
	w.logger.Info("watching input tree", logging.String("directory", w.root))

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop cancels any pending timer and joins the event loop. No callback fires
// after Stop returns.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
	w.wg.Wait()
	w.logger.Info("watcher stopped")
}

// watchTree adds watches for dir and every subdirectory. fsnotify watches
// are not recursive on their own.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(w.quiet)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) {
				if armed && !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.quiet)
				armed = true
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		case <-timer.C:
			armed = false
			w.logger.Debug("quiet period reached")
			w.callback()
		}
	}
}

// handleEvent reports whether the event counts as file activity. Directory
// events never arm the timer, but newly created directories are added to the
// watch set so files appearing inside them are seen.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					logging.String("directory", event.Name),
					logging.Error(err))
			}
			return false
		}
	}

	w.logger.Debug("filesystem event", logging.String("path", event.Name))
	return true
}
