package mapping

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/snowlens/snowlens/internal/util"
)

// Watcher reloads the table specs whenever the mappings file changes.
// Long-running modes subscribe to Updates and swap their loader's specs.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	updates chan []TableSpec
}

// NewWatcher starts watching the mappings file. The containing directory is
// watched rather than the file itself so editors that replace the file on
// save keep triggering events.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		path:    path,
		updates: make(chan []TableSpec, 1),
	}

	go w.processEvents()

	return w, nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}

			specs, err := Load(w.path)
			if err != nil {
				// Keep the previous mappings on a bad edit.
				util.LogWarnf("Ignoring mappings reload: %v", err)
				continue
			}

			// Drop a stale pending update so subscribers always see the
			// latest file state.
			select {
			case <-w.updates:
			default:
			}
			w.updates <- specs

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("Mappings watch error: " + err.Error())
		}
	}
}

// Updates delivers the reloaded spec sets.
func (w *Watcher) Updates() <-chan []TableSpec {
	return w.updates
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
