package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads a config file whenever it is written or replaced.
type Watcher struct {
	w    *fsnotify.Watcher
	stop chan struct{}
	done chan struct{}
}

// Watch reloads fn on change and then calls onChange. A file that fails to
// parse is logged and the previous config stays in effect.
//
// The directory is watched rather than the file, since editors usually
// replace a file instead of writing it in place.
func Watch(fn string, onChange func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err = w.Add(filepath.Dir(fn)); err != nil {
		w.Close()
		return nil, errors.Wrap(err, fn)
	}

	this := &Watcher{
		w:    w,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go this.run(filepath.Clean(fn), onChange)
	return this, nil
}

func (this *Watcher) run(fn string, onChange func()) {
	defer close(this.done)

	for {
		select {
		case <-this.stop:
			return

		case err, ok := <-this.w.Errors:
			if !ok {
				return
			}
			log.Errorf("inotify %s: %v", fn, err)

		case event, ok := <-this.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fn ||
				!event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}

			if err := reload(fn); err != nil {
				log.Errorf("reload %s: %v", fn, err)
				continue
			}

			log.Infof("reloaded %s", fn)
			if onChange != nil {
				onChange()
			}
		}
	}
}

func (this *Watcher) Close() error {
	close(this.stop)
	err := this.w.Close()
	<-this.done
	return err
}
