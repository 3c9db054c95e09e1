package manifest

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/navroute/pkg/route"
)

// WatcherConfig configures a manifest Watcher.
type WatcherConfig struct {
	// Path is the local manifest file.
	Path string

	// Debounce is the quiet period after the last change before the
	// manifest is reloaded (default: 100ms).
	Debounce time.Duration

	// Logger receives reload failures (default: slog.Default()).
	Logger *slog.Logger
}

// Reload is a successfully rebuilt manifest.
type Reload struct {
	Manifest *Manifest
	Tree     *route.Branch[string]
}

// Watcher rebuilds the route tree whenever the manifest file changes.
// Invalid manifests are reported and skipped, so the last good tree stays
// in use.
type Watcher struct {
	config   WatcherConfig
	logger   *slog.Logger
	onReload func(Reload)
	onError  func(error)

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher. Call Start to begin watching.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = 100 * time.Millisecond
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		config: config,
		logger: logger.With("component", "manifest", "path", config.Path),
		done:   make(chan struct{}),
	}
}

// OnReload sets the callback for rebuilt manifests.
func (w *Watcher) OnReload(fn func(Reload)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// OnError sets the callback for failed reloads.
func (w *Watcher) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Start watches the manifest's directory until ctx is done or Stop is
// called. Editors often replace files instead of writing them, so the
// directory is watched rather than the file.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fw.Add(filepath.Dir(w.config.Path)); err != nil {
		fw.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	w.mu.Unlock()

	go w.loop(ctx, fw)
	return nil
}

// Stop ends watching. It may be called more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.watcher != nil {
			w.watcher.Close()
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	target := filepath.Clean(w.config.Path)
	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.config.Debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("manifest watch error", "error", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	m, tree, err := LoadTree(ctx, FileSource{Path: w.config.Path})

	w.mu.Lock()
	onReload, onError := w.onReload, w.onError
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("manifest reload failed", "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}
	w.logger.Info("manifest reloaded", "routes", len(m.Routes))
	if onReload != nil {
		onReload(Reload{Manifest: m, Tree: tree})
	}
}
