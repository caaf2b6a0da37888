package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// Watcher reloads the knowledge base file into a Snapshot whenever it changes.
type Watcher struct {
	path     string
	snapshot *Snapshot
	logger   *logrus.Logger
	fsw      *fsnotify.Watcher

	mu        sync.Mutex
	callbacks []func(*domain.KnowledgeBase)
}

// NewWatcher starts watching the directory that holds path. Saves replace the
// file by rename, so the directory rather than the file is watched.
func NewWatcher(path string, snapshot *Snapshot, logger *logrus.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to resolve knowledge base path: %w", err)
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		snapshot: snapshot,
		logger:   logger,
		fsw:      fsw,
	}, nil
}

// OnReload registers a callback invoked after every successful reload.
func (w *Watcher) OnReload(fn func(*domain.KnowledgeBase)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Run processes file events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Knowledge base watcher error")
		}
	}
}

func (w *Watcher) reload() {
	kb, err := w.snapshot.Reload(w.path)
	if err != nil {
		w.logger.WithError(err).WithField("path", w.path).
			Warn("Knowledge base reload failed, keeping previous snapshot")
		return
	}

	w.logger.WithFields(logrus.Fields{
		"path":     w.path,
		"version":  kb.Version,
		"patterns": len(kb.Patterns),
	}).Info("Knowledge base reloaded")

	w.mu.Lock()
	callbacks := make([]func(*domain.KnowledgeBase), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(kb)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
