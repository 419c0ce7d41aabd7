package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher reports changed transcript files below a directory tree. Bursts of
// events are debounced into one batch.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	changes  chan []string
	errs     chan error
	done     chan struct{}
	once     sync.Once
}

// NewWatcher watches dir and every directory created below it.
func NewWatcher(dir string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		changes:  make(chan []string, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
	if err := w.addTree(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

// Changes delivers batches of changed paths.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Errors delivers watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	var (
		pending = make(map[string]bool)
		timer   *time.Timer
		fire    <-chan time.Time
	)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.watchNew(event.Name)
					pending[event.Name] = true
				}
			}
			if filepath.Ext(event.Name) == ".txt" && event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending[event.Name] = true
			}
			if len(pending) > 0 && timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			}

		case <-fire:
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			clear(pending)
			timer, fire = nil, nil
			select {
			case w.changes <- batch:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

// watchNew adds a directory created after startup. Failures surface on
// Errors, since transcripts below it would otherwise never reload.
func (w *Watcher) watchNew(dir string) {
	if err := w.addTree(dir); err != nil {
		w.report(fmt.Errorf("failed to watch %s: %w", dir, err))
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.errs <- err:
	default:
	}
}
