// Package watcher reloads kbsearch's configuration when its file changes.
//
// ConfigWatcher uses fsnotify on the directory holding the config file, so
// editors that save by renaming a temp file are seen too. When fsnotify is
// unavailable (some network mounts and containers) it falls back to polling
// the file's size and modification time. Bursts of events are coalesced by
// a Debouncer before a single reload runs.
//
// Usage:
//
//	w, err := watcher.NewConfigWatcher(cfgPath, store, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	go func() { _ = w.Start(ctx) }()
//	defer w.Stop()
package watcher
