package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"paperchat/internal/logging"
)

// InboxWatcher watches a directory and reports PDFs once they have settled.
// Files being copied in fire a stream of write events; a path is emitted
// only after its events have been quiet for the settle window, so partial
// files are never uploaded.
type InboxWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	settle      time.Duration
	pending     map[string]time.Time
	files       chan string
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// DefaultSettle is the quiet window after the last write before a file is
// considered complete.
const DefaultSettle = 2 * time.Second

// NewInboxWatcher creates a watcher for dir. A non-positive settle falls
// back to DefaultSettle.
func NewInboxWatcher(dir string, settle time.Duration) (*InboxWatcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox path %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &InboxWatcher{
		watcher: fsw,
		dir:     dir,
		settle:  settle,
		pending: make(map[string]time.Time),
		files:   make(chan string, 16),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Files is the stream of settled PDF paths. It closes when the watcher stops.
func (w *InboxWatcher) Files() <-chan string { return w.files }

// Start begins watching. Non-blocking; events are processed in a goroutine.
func (w *InboxWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logging.Watch("watching inbox: %s (settle %s)", w.dir, w.settle)

	go w.run()
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *InboxWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Errorf("closing watcher: %v", err)
	}
	logging.Watch("inbox watcher stopped")
}

// ScanExisting queues every PDF already present in the inbox, for callers
// that want a catch-up pass before watching for new arrivals.
func (w *InboxWatcher) ScanExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scanning inbox: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if !Acceptable(path) {
			continue
		}
		select {
		case w.files <- path:
		case <-w.stopCh:
			return nil
		}
	}
	return nil
}

// run is the main event loop.
func (w *InboxWatcher) run() {
	defer close(w.doneCh)
	defer close(w.files)

	ticker := time.NewTicker(w.settle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Errorf("watch error: %v", err)

		case <-ticker.C:
			w.flushSettled()
		}
	}
}

// handleEvent records write activity for acceptable files.
func (w *InboxWatcher) handleEvent(event fsnotify.Event) {
	if !Acceptable(event.Name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.mu.Lock()
		w.pending[event.Name] = time.Now()
		w.mu.Unlock()
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.mu.Lock()
		delete(w.pending, event.Name)
		w.mu.Unlock()
	}
}

// flushSettled emits files whose last event is older than the settle window.
func (w *InboxWatcher) flushSettled() {
	now := time.Now()

	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		if _, err := os.Stat(path); err != nil {
			logging.Watch("skipping vanished file: %s", filepath.Base(path))
			continue
		}
		logging.Watch("settled: %s", filepath.Base(path))
		select {
		case w.files <- path:
		case <-w.stopCh:
			return
		}
	}
}
