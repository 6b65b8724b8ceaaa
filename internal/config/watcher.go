package config

import "sync"

// Watcher holds the current config snapshot and notifies subscribers when it
// is replaced. Consumers call Current per event rather than caching fields.
type Watcher struct {
	mu        sync.RWMutex
	cfg       Config
	nextID    int
	listeners map[int]func(Config)
}

func NewWatcher(cfg Config) *Watcher {
	return &Watcher{cfg: cfg, listeners: make(map[int]func(Config))}
}

func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// OnChange registers a callback invoked with every new snapshot. The returned
// function removes the subscription.
func (w *Watcher) OnChange(fn func(Config)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

// Set replaces the snapshot and notifies subscribers outside the lock.
func (w *Watcher) Set(cfg Config) {
	w.mu.Lock()
	w.cfg = cfg
	fns := make([]func(Config), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(cfg)
	}
}

// Reload re-reads the config sources and publishes the new snapshot.
func (w *Watcher) Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	w.Set(cfg)
	return nil
}
