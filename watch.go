// FILE: lixenwraith/dotenv/watch.go
package dotenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Event reports a key changed by a reload of the env sources.
// A failed reload yields a single Event with Err set and no key.
type Event struct {
	Key      string
	Value    Value
	OldValue Value
	Removed  bool
	Time     time.Time
	Err      error
}

// WatchOptions configures source watching
type WatchOptions struct {
	// Debounce coalesces bursts of file events (minimum MinDebounce)
	Debounce time.Duration

	// ReloadTimeout bounds one reload
	ReloadTimeout time.Duration

	// Buffer is the event channel capacity
	Buffer int
}

// DefaultWatchOptions returns sensible defaults for source watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		Debounce:      DefaultDebounce,
		ReloadTimeout: DefaultReloadTimeout,
		Buffer:        DefaultEventBuffer,
	}
}

// watcher follows the sources of one store
type watcher struct {
	store            *Store
	opts             WatchOptions
	fs               *fsnotify.Watcher
	dirs             map[string]bool // Directory sources, all env files relevant
	files            map[string]bool // File sources
	events           chan Event
	reloadInProgress atomic.Bool
}

// Watch reloads the sources of the last ReadEnv and the data files when they change
// and reports changed keys.
// The channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan Event, error) {
	return s.WatchWithOptions(ctx, DefaultWatchOptions())
}

// WatchWithOptions is Watch with custom options
func (s *Store) WatchWithOptions(ctx context.Context, opts WatchOptions) (<-chan Event, error) {
	if opts.Debounce < MinDebounce {
		opts.Debounce = MinDebounce
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultEventBuffer
	}

	sources := append(s.Sources(), s.DataFiles()...)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no env sources to watch", ErrEmptySource)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &watcher{
		store:  s,
		opts:   opts,
		fs:     fw,
		dirs:   make(map[string]bool),
		files:  make(map[string]bool),
		events: make(chan Event, opts.Buffer),
	}

	watched := make(map[string]bool)
	for _, src := range sources {
		info, err := os.Stat(src)
		if err != nil {
			continue
		}
		dir := src
		if info.IsDir() {
			w.dirs[filepath.Clean(src)] = true
		} else {
			w.files[filepath.Clean(src)] = true
			dir = filepath.Dir(src)
		}
		if watched[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch '%s': %w", dir, err)
		}
		watched[dir] = true
	}
	if len(watched) == 0 {
		fw.Close()
		return nil, fmt.Errorf("%w: no existing env sources to watch", ErrEmptySource)
	}

	go w.loop(ctx)
	return w.events, nil
}

// loop debounces file events into reloads until ctx is done
func (w *watcher) loop(ctx context.Context) {
	defer close(w.events)
	defer w.fs.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.store.logger.Warn("env watcher error", "error", err)
		case <-fire:
			fire = nil
			w.performReload(ctx)
		}
	}
}

// relevant reports whether a changed path belongs to a watched source
func (w *watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	ok, err := doublestar.Match(EnvFilePattern, filepath.Base(name))
	return err == nil && ok
}

// performReload reloads the store and emits the differences
func (w *watcher) performReload(ctx context.Context) {
	// Prevent concurrent reloads
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	rctx, cancel := context.WithTimeout(ctx, w.opts.ReloadTimeout)
	defer cancel()

	now := time.Now()
	previous, current, err := w.store.reload(rctx)
	if err != nil {
		w.store.logger.Warn("env reload failed", "error", err)
		w.send(ctx, Event{Time: now, Err: err})
		return
	}

	changed := 0
	for k, v := range current.All() {
		old, existed := previous.Get(k)
		if existed && old.Equal(v) {
			continue
		}
		changed++
		if !w.send(ctx, Event{Key: k, Value: v, OldValue: old, Time: now}) {
			return
		}
	}
	for k, old := range previous.All() {
		if current.Has(k) {
			continue
		}
		changed++
		if !w.send(ctx, Event{Key: k, OldValue: old, Removed: true, Time: now}) {
			return
		}
	}
	w.store.logger.Debug("env reloaded", "changed", changed)
}

// send delivers ev unless ctx is done first
func (w *watcher) send(ctx context.Context, ev Event) bool {
	select {
	case w.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
