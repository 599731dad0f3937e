package loader

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/kestrelhq/kestrel/internal/logging"
)

// Watcher monitors plugin search paths and reports when a plugin manifest
// appears, changes, or disappears. Activation of new plugins is left to the
// caller; the engine decides when a reload is safe.
type Watcher struct {
	fw   *fsnotify.Watcher
	log  *logging.Logger
	done chan struct{}
}

// Watch starts watching the given paths. The callback receives the affected
// plugin directory; it runs on the watcher's goroutine and must not block.
func Watch(paths []string, log *logging.Logger, onChange func(dir string)) (*Watcher, error) {
	if log == nil {
		log = logging.Nop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{fw: fw, log: log.Sub("loader.watch"), done: make(chan struct{})}
	for _, p := range paths {
		if err := fw.Add(p); err != nil {
			w.log.Warn().Err(err).Str("path", p).Msg("cannot watch plugin path")
		}
	}

	go w.run(onChange)
	return w, nil
}

func (w *Watcher) run(onChange func(dir string)) {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			dir := ev.Name
			if filepath.Base(dir) == ManifestName {
				dir = filepath.Dir(dir)
			}
			w.log.Debug().Str("dir", dir).Str("op", ev.Op.String()).Msg("plugin change")
			onChange(dir)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		case <-w.done:
			return
		}
	}
}

// relevant filters events down to manifest changes and plugin directory
// creation or removal.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Base(ev.Name) == ManifestName {
		return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
	}
	return ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
