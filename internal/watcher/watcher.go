// =============================================================================
// Frame to Scene Exporter - Directory Watcher
// =============================================================================
//
// This module implements watch mode: after the initial export pass the
// frame directory is monitored with fsnotify and newly arriving frame
// CSVs are exported as the simulation writes them out.
//
// SETTLE DELAY:
//   Simulations write frame files incrementally, so a Create event fires
//   long before the file is complete. Each eligible path gets a timer
//   that restarts on every Write event; the export callback only runs
//   once the file has been quiet for the settle period.
//
// =============================================================================

package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gransim/sceneexport/internal/exporter"
	"github.com/gransim/sceneexport/pkg/utils"
)

// DefaultSettle is the default quiet period before a new frame file is
// considered complete.
const DefaultSettle = 500 * time.Millisecond

// Watcher monitors a frame directory and invokes a callback for each
// frame file that appears and settles.
type Watcher struct {
	dir     string
	settle  time.Duration
	onFrame func(path string)
	logger  exporter.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a Watcher for a directory.
//
// PARAMETERS:
//   - dir: The frame directory to monitor.
//   - settle: The quiet period before a file is handed to onFrame;
//     DefaultSettle when zero.
//   - onFrame: Called with the path of each settled frame file.
//   - logger: Receives watcher log output.
func New(dir string, settle time.Duration, onFrame func(path string), logger exporter.Logger) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:     dir,
		settle:  settle,
		onFrame: onFrame,
		logger:  logger,
		fsw:     fsw,
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Run processes watch events until Stop is called.
func (w *Watcher) Run() {
	w.logger.Info("Watching %s for new frames", w.dir)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !eligible(event.Name) {
				continue
			}
			w.touch(event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watch error: %v", err)
		}
	}
}

// Stop ends the watch loop and cancels pending settle timers.
func (w *Watcher) Stop() {
	close(w.done)
	w.fsw.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// touch restarts the settle timer for a path.
func (w *Watcher) touch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[path]; exists {
		timer.Reset(w.settle)
		return
	}

	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.logger.Debug("Frame settled: %s", path)
		w.onFrame(path)
	})
}

// eligible reports whether a path looks like a frame file: a non-hidden
// .csv directly in the watched directory.
func eligible(path string) bool {
	name := filepath.Base(path)
	if utils.IsHidden(name) {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
