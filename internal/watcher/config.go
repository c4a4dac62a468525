package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader re-reads configuration. *config.Store implements it.
type Reloader interface {
	Reload() error
}

// ConfigWatcher reloads configuration when its file changes.
type ConfigWatcher struct {
	path      string
	reloader  Reloader
	opts      Options
	debouncer *Debouncer

	stopCh   chan struct{}
	stopOnce sync.Once
	reloads  atomic.Uint64
	polling  atomic.Bool
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, reloader Reloader, opts Options) (*ConfigWatcher, error) {
	if reloader == nil {
		return nil, fmt.Errorf("config watcher: nil reloader")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	opts = opts.WithDefaults()
	return &ConfigWatcher{
		path:      absPath,
		reloader:  reloader,
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow),
		stopCh:    make(chan struct{}),
	}, nil
}

// Start watches until ctx is done or Stop is called. It returns nil on
// Stop and ctx.Err() on cancellation.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		w.forward()
	}()
	defer func() {
		w.debouncer.Stop()
		<-forwarded
	}()

	if w.opts.ForcePolling {
		return w.poll(ctx)
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		// The directory, not the file: atomic saves replace the file's inode.
		if err = fsw.Add(filepath.Dir(w.path)); err != nil {
			_ = fsw.Close()
		}
	}
	if err != nil {
		slog.Warn("fsnotify unavailable, polling config file",
			slog.String("path", w.path),
			slog.String("error", err.Error()),
			slog.Duration("interval", w.opts.PollInterval))
		return w.poll(ctx)
	}
	defer func() { _ = fsw.Close() }()

	slog.Debug("watching config file", slog.String("path", w.path))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}

// Stop ends Start. Safe to call multiple times.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// Reloads returns how many reloads have run.
func (w *ConfigWatcher) Reloads() uint64 {
	return w.reloads.Load()
}

// Polling reports whether the watcher fell back to polling.
func (w *ConfigWatcher) Polling() bool {
	return w.polling.Load()
}

func (w *ConfigWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = OpDelete
	default:
		return
	}
	w.debouncer.Add(FileEvent{Path: w.path, Operation: op, Timestamp: time.Now()})
}

// forward runs one reload per debounced batch until the debouncer stops.
func (w *ConfigWatcher) forward() {
	for batch := range w.debouncer.Output() {
		last := batch[len(batch)-1]
		if last.Operation == OpDelete {
			slog.Warn("config file removed, keeping current configuration",
				slog.String("path", w.path))
			continue
		}
		w.reloads.Add(1)
		if err := w.reloader.Reload(); err != nil {
			slog.Warn("config reload failed",
				slog.String("path", w.path),
				slog.String("error", err.Error()))
		}
	}
}

// fileState is what polling compares between ticks.
type fileState struct {
	exists  bool
	size    int64
	modTime time.Time
}

func (s fileState) same(o fileState) bool {
	return s.exists == o.exists && s.size == o.size && s.modTime.Equal(o.modTime)
}

func (w *ConfigWatcher) stat() fileState {
	info, err := os.Stat(w.path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime()}
}

func (w *ConfigWatcher) poll(ctx context.Context) error {
	w.polling.Store(true)
	prev := w.stat()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			cur := w.stat()
			if cur.same(prev) {
				continue
			}
			op := OpModify
			switch {
			case !prev.exists && cur.exists:
				op = OpCreate
			case prev.exists && !cur.exists:
				op = OpDelete
			}
			prev = cur
			w.debouncer.Add(FileEvent{Path: w.path, Operation: op, Timestamp: time.Now()})
		}
	}
}
