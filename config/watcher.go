package config

import (
	"context"
	"sync"
	"time"

	"github.com/stratastream/stateful/libs/fs"
	"github.com/stratastream/stateful/logging"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
)

const namedLogger = "cfgwatcher"

// Option changes a configuration right after it is read from the file.
type Option func(w *Watcher)

// Use applies fns to every configuration loaded, in order. Command line
// flags parsed that way keep precedence over the file.
func Use(fns ...func(*Config) error) Option {
	return func(w *Watcher) {
		w.adjust = append(w.adjust, fns...)
	}
}

// Watcher reloads the configuration file when it changes and hands the new
// configuration to its listeners.
type Watcher struct {
	log  *logging.Logger
	path string

	adjust []func(*Config) error

	mu        sync.Mutex
	cfg       Config
	listeners []func(Config)
}

// NewWatcher loads the configuration of home and watches it until ctx is
// done.
func NewWatcher(ctx context.Context, log *logging.Logger, home string, opts ...Option) (*Watcher, error) {
	watcherLog := log.Named(namedLogger)
	// every configuration change is worth a line
	watcherLog.SetLevel(logging.DebugLevel)
	w := &Watcher{
		log:  watcherLog,
		path: Path(home),
		cfg:  NewDefaultConfig(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.load(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(w.path); err != nil {
		watcher.Close()
		return nil, err
	}
	w.log.Info("config watcher started", logging.String("config", w.path))

	go w.watch(ctx, watcher)
	return w, nil
}

// Get returns the last loaded configuration.
func (w *Watcher) Get() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// OnConfigUpdate registers functions called with every new configuration.
// They run on the watcher goroutine.
func (w *Watcher) OnConfigUpdate(fns ...func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fns...)
}

func (w *Watcher) load() error {
	buf, err := fs.ReadFile(w.path)
	if err != nil {
		return err
	}
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return err
	}
	for _, f := range w.adjust {
		if err := f(&cfg); err != nil {
			return err
		}
	}
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
	return nil
}

func (w *Watcher) notify() {
	w.mu.Lock()
	cfg := w.cfg
	listeners := append([]func(Config){}, w.listeners...)
	w.mu.Unlock()
	for _, f := range listeners {
		f(cfg)
	}
}

func (w *Watcher) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Create) {
				continue
			}
			if event.Has(fsnotify.Rename) {
				// editors replace the file by a rename, wait for the new one
				// and watch it instead of the old inode
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.path); err != nil {
					w.log.Error("unable to watch configuration again", logging.Error(err))
					continue
				}
			}
			w.log.Info("configuration updated", logging.String("event", event.Name))
			if err := w.load(); err != nil {
				w.log.Error("unable to load configuration", logging.Error(err))
				continue
			}
			w.notify()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("config watcher received error event", logging.Error(err))
		case <-ctx.Done():
			w.log.Debug("config watcher stopped")
			return
		}
	}
}
