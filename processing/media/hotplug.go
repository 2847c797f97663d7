package media

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher turns filesystem events on device directories into coalesced change
// notifications.
type Watcher struct {
	w       *fsnotify.Watcher
	match   func(path string) bool
	changes chan struct{}
	logger  *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewWatcher(dirs []string, match func(path string) bool, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		w:       fw,
		match:   match,
		changes: make(chan struct{}, 1),
		logger:  logger,
		done:    make(chan struct{}),
	}

	go w.loop()

	return w, nil
}

func (w *Watcher) Changes() <-chan struct{} { return w.changes }

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.w.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if w.match != nil && !w.match(ev.Name) {
				continue
			}

			w.logger.Debug("device change", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))

			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.logger.Warn("device watcher error", zap.Error(err))
		}
	}
}
