// Package watcher implements the external-change poller from
// spec.md §4.5: it watches the store's mtime for edits made outside
// this process (including by a sibling writer, or by this process's
// own serializer) and rebuilds the index when it changes.
package watcher

import (
	"sync"
	"time"

	"github.com/xlatefs/xlatefs/internal/xlog"
)

const pollWait = 5 * time.Second

// Watcher polls a store's mtime and calls Rebuild whenever it advances.
type Watcher struct {
	modTime func() (time.Time, error)
	rebuild func() error

	wake chan struct{}
	quit chan struct{}
	done chan struct{}

	mu       sync.Mutex
	lastSeen time.Time
}

// New starts the watcher goroutine. modTime reads the store's current
// modification time; rebuild reloads the index from the store.
func New(modTime func() (time.Time, error), rebuild func() error) *Watcher {
	w := &Watcher{
		modTime: modTime,
		rebuild: rebuild,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Watcher) loop() {
	defer close(w.done)
	log := xlog.Tagged("watcher")
	for {
		mtime, err := w.modTime()
		if err != nil {
			log.WithError(err).Error("failed to stat store file")
		} else {
			w.mu.Lock()
			changed := mtime.After(w.lastSeen)
			w.mu.Unlock()
			if changed {
				log.Info("store file changed, reloading")
				if err := w.rebuild(); err != nil {
					log.WithError(err).Error("failed to rebuild index")
				} else {
					w.mu.Lock()
					w.lastSeen = mtime
					w.mu.Unlock()
				}
			}
		}

		select {
		case <-w.quit:
			return
		case <-w.wake:
		case <-time.After(pollWait):
		}
	}
}

// Notify wakes the poll loop immediately, used after an internal
// mutation so the watcher doesn't wait out the full poll interval.
func (w *Watcher) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Stop signals the loop to exit and waits for it to do so.
func (w *Watcher) Stop() {
	close(w.quit)
	<-w.done
}
