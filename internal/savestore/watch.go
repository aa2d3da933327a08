package savestore

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const watchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

func (s *Store) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return err
	}
	s.watcher = w
	s.wg.Add(1)
	go s.watchLoop()
	return nil
}

// watchLoop drops cached summaries of saves changed behind the store's back.
// It ends when the watcher is closed.
func (s *Store) watchLoop() {
	defer s.wg.Done()
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if ev.Op&watchedOps == 0 || !ValidName(name) {
				continue
			}
			s.log.Debug("save changed", "name", name, "op", ev.Op.String())
			s.invalidate(name)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", "error", err)
		}
	}
}
