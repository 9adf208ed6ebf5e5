package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ngoclaw/clidriver/pkg/safego"
)

// Watcher hot-reloads the local inventory file (./config.yaml or
// ./config/config.yaml) so a long-lived fanout runner picks up host edits
// without a restart. Global config and environment overrides are re-applied
// on every reload via Load.
type Watcher struct {
	mu      sync.RWMutex
	cfg     *Config
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	stopCh  chan struct{}
}

// NewWatcher performs an initial Load and, if the local config directory
// exists, arms an fsnotify watch on it.
func NewWatcher(localDir string, logger *zap.Logger) (*Watcher, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "config-watcher")),
		stopCh: make(chan struct{}),
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(localDir); err != nil {
		_ = fw.Close()
		w.logger.Warn("local config directory not watchable, hot-reload disabled",
			zap.String("dir", localDir), zap.Error(err))
		return w, nil
	}
	w.watcher = fw
	return w, nil
}

// Config returns the current inventory (thread-safe).
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// Start begins watching for changes. No-op if no watcher was armed. Runs
// until Stop is called.
func (w *Watcher) Start() {
	if w.watcher == nil {
		return
	}
	safego.Go(w.logger, "config-watcher", w.watchLoop)
}

func (w *Watcher) watchLoop() {
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
			w.logger.Error("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != "config.yaml" {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	cfg, err := Load()
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous inventory", zap.Error(err))
		return
	}
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
	w.logger.Info("inventory reloaded", zap.Int("hosts", len(cfg.Hosts)))
}

// Stop halts the watch loop and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	close(w.stopCh)
	_ = w.watcher.Close()
}
