package detect

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the profile staleness watcher
type WatcherConfig struct {
	// Root is the workspace root to watch
	Root string

	// Table is the signature table whose markers invalidate the profile
	Table *Table

	// DebounceDelay is how long to wait for more changes before flagging
	DebounceDelay time.Duration

	// Logger for logging events
	Logger *slog.Logger
}

// Watcher monitors the workspace root for changes to files that the
// signature table recognizes and flags a cached profile as stale. It never
// re-scans on its own; re-detection stays user-initiated.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before flagging
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	staleMu sync.RWMutex
	stale   bool

	// Output channel: relative paths whose change made the profile stale.
	// Owned by processEvents, which closes it on shutdown.
	events chan string

	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new staleness watcher
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if config.Table == nil {
		config.Table = DefaultTable()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 200 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		events:  make(chan string, 16),
		done:    make(chan struct{}),
	}, nil
}

// Events returns the channel of staleness events
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Stale reports whether a relevant file changed since the watcher started
func (w *Watcher) Stale() bool {
	w.staleMu.RLock()
	defer w.staleMu.RUnlock()
	return w.stale
}

// Reset clears the stale flag, typically after an explicit re-scan
func (w *Watcher) Reset() {
	w.staleMu.Lock()
	w.stale = false
	w.staleMu.Unlock()
}

// Start begins watching the workspace root. Only the root directory itself
// is watched; marker files live there or one level below well-known
// directories which are added individually.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.config.Root); err != nil {
		return err
	}
	// Well-known nested marker locations.
	for _, sub := range []string{".github/workflows", "prisma", "config"} {
		// Missing directories are fine; they simply are not watched.
		_ = w.watcher.Add(filepath.Join(w.config.Root, sub))
	}

	go w.processEvents(ctx)

	w.logger.Info("Profile watcher started",
		"root", w.config.Root,
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop stops the watcher. The events channel is closed by the processing
// goroutine, never here, so an in-flight flush cannot send on a closed
// channel.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing. It owns the events
// channel and closes it when it exits.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent records an fsnotify event when the changed path is one the
// signature table recognizes
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.config.Root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !w.config.Table.MatchesPath(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[rel] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Marker file change detected",
		"path", rel,
		"op", event.Op.String())
}

// flushPending flags the profile stale and emits the changed paths
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	w.staleMu.Lock()
	w.stale = true
	w.staleMu.Unlock()

	for _, path := range changed {
		select {
		case w.events <- path:
		default:
			w.logger.Warn("Event channel full, dropping event", "path", path)
		}
	}
}
