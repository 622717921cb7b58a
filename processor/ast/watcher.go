package ast

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the file watcher
type WatcherConfig struct {
	// Root is the root directory to watch
	Root string

	// Match reports whether a slash-separated path relative to Root is
	// relevant. Nil matches every file.
	Match func(relPath string) bool

	// DebounceDelay is how long to wait for more changes before processing
	DebounceDelay time.Duration

	// Logger for logging events
	Logger *slog.Logger
}

// WatchEvent represents a file change event
type WatchEvent struct {
	// Path is the slash-separated file path relative to Root
	Path string

	// Operation is the type of change
	Operation WatchOperation
}

// WatchOperation indicates the type of file operation
type WatchOperation string

const (
	OpCreate WatchOperation = "create"
	OpModify WatchOperation = "modify"
	OpDelete WatchOperation = "delete"
)

// skipDirs are never watched
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"__pycache__":  true,
	"target":       true,
}

// Watcher watches for source file changes and emits one batch of events per
// debounce window. Rewrites that leave a file's content unchanged are
// dropped by hash comparison.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation

	// State tracking for change detection
	hashMu sync.RWMutex
	hashes map[string]string // relative path → content hash

	// Output channel
	events chan []WatchEvent
}

// NewWatcher creates a new file watcher
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}
	if config.Match == nil {
		config.Match = func(string) bool { return true }
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  config.Logger,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan []WatchEvent, 16),
	}, nil
}

// Events returns the channel of change batches
func (w *Watcher) Events() <-chan []WatchEvent {
	return w.events
}

// Start begins watching the root directory for changes
func (w *Watcher) Start(ctx context.Context) error {
	// Add watches recursively
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	// Start the event processing goroutine
	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"root", w.config.Root,
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// Seed records the hashes of already processed files so that the first
// write of identical content is not reported
func (w *Watcher) Seed(files []*SourceFile) {
	for _, f := range files {
		w.SetHash(f.RelPath, f.Hash)
	}
}

// SetHash records the hash for a file
func (w *Watcher) SetHash(relPath, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[relPath] = hash
}

// GetHash returns the recorded hash for a file
func (w *Watcher) GetHash(relPath string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[relPath]
	return hash, ok
}

// addWatchesRecursive adds watches to all directories
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Only watch directories
		if !info.IsDir() {
			return nil
		}

		if path != root && skipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

func skipDir(base string) bool {
	return skipDirs[base] || strings.HasPrefix(base, ".")
}

// processEvents handles fsnotify events with debouncing
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
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
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	// Handle directory creation (for new watches)
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
	}

	relPath := w.relPath(path)
	if !w.config.Match(relPath) {
		return
	}

	// Accumulate pending changes
	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected",
		"path", relPath,
		"op", event.Op.String())
}

// handleNewDirectory adds a watch to a newly created directory
func (w *Watcher) handleNewDirectory(path string) {
	if skipDir(filepath.Base(path)) {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	} else {
		w.logger.Debug("Added watch for new directory", "path", path)
	}
}

// flushPending processes accumulated changes into one batch
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}

	// Copy and clear pending
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var batch []WatchEvent
	for path, op := range toProcess {
		if ctx.Err() != nil {
			return
		}

		relPath := w.relPath(path)
		event := WatchEvent{Path: relPath}

		content, err := os.ReadFile(path)
		if err != nil {
			// Removed, or renamed away
			w.hashMu.Lock()
			_, had := w.hashes[relPath]
			delete(w.hashes, relPath)
			w.hashMu.Unlock()
			if !had {
				continue
			}
			w.logger.Debug("File gone", "path", relPath, "op", op.String())
			event.Operation = OpDelete
			batch = append(batch, event)
			continue
		}

		// Check if content actually changed
		hash := ComputeHash(content)
		oldHash, hadHash := w.GetHash(relPath)
		if hadHash && oldHash == hash {
			continue
		}
		w.SetHash(relPath, hash)

		if hadHash {
			event.Operation = OpModify
		} else {
			event.Operation = OpCreate
		}
		batch = append(batch, event)
	}

	if len(batch) == 0 {
		return
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	w.sendBatch(batch)
}

// sendBatch sends a batch to the output channel
func (w *Watcher) sendBatch(batch []WatchEvent) {
	select {
	case w.events <- batch:
		w.logger.Debug("Sent watch batch", "changes", len(batch))
	default:
		w.logger.Warn("Event channel full, dropping batch",
			"changes", len(batch))
	}
}

func (w *Watcher) relPath(path string) string {
	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
