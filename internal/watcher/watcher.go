package watcher

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"go.uber.org/zap"
)

var ErrAlreadyRunning = errors.New("watcher already running")

// Watcher reports changes to the entries of a single directory. It does not
// descend into subdirectories.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan syncer.ChangeEvent
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopped bool

	logger *zap.Logger
}

func New(logger *zap.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: watcher,
		events:  make(chan syncer.ChangeEvent, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),

		logger: logger,
	}, nil
}

// Start begins watching dir.
func (w *Watcher) Start(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || w.stopped {
		return ErrAlreadyRunning
	}

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.logger.Info("watching directory", zap.String("dir", dir))

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop closes the underlying watcher and waits for the event loop to exit.
// Events and Errors are closed afterwards.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.running = false
	w.mu.Unlock()

	close(w.done)

	err := w.watcher.Close()

	w.wg.Wait()

	close(w.events)
	close(w.errors)

	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	return nil
}

func (w *Watcher) Events() <-chan syncer.ChangeEvent {
	return w.events
}

func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			change, ok := convertEvent(event)
			if !ok {
				continue
			}

			select {
			case w.events <- change:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// convertEvent maps an fsnotify event to a ChangeEvent. Chmod-only events
// are dropped.
func convertEvent(event fsnotify.Event) (syncer.ChangeEvent, bool) {
	var op syncer.Op
	switch {
	case event.Has(fsnotify.Create):
		op = syncer.OpCreate
	case event.Has(fsnotify.Write):
		op = syncer.OpWrite
	case event.Has(fsnotify.Remove):
		op = syncer.OpRemove
	case event.Has(fsnotify.Rename):
		op = syncer.OpRename
	default:
		return syncer.ChangeEvent{}, false
	}

	// Removed and renamed paths no longer exist and report as files.
	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	return syncer.ChangeEvent{
		Path:  event.Name,
		IsDir: isDir,
		Op:    op,
	}, true
}
