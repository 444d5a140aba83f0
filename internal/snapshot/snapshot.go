// Package snapshot implements the periodic backup worker from
// spec.md §4.6: copy the store file into a retention directory on a
// timestamped name, then prune all but the newest 24 copies.
package snapshot

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xlatefs/xlatefs/internal/xlog"
)

const (
	// Interval is the time between snapshot cycles.
	Interval = time.Hour
	// Retain is the number of newest backups kept.
	Retain = 24
	prefix = "translations_backup_"
)

// Worker periodically copies a store file into a backup directory.
type Worker struct {
	storePath string
	backupDir string
	now       func() time.Time

	quit chan struct{}
	done chan struct{}
}

// New starts the snapshot worker. now is overridable for tests; pass
// nil to use time.Now.
func New(storePath, backupDir string, now func() time.Time) *Worker {
	w := newWorker(storePath, backupDir, now)
	go w.loop()
	return w
}

// newWorker builds a Worker without starting its background loop, so
// tests can drive cycle() deterministically.
func newWorker(storePath, backupDir string, now func() time.Time) *Worker {
	if now == nil {
		now = time.Now
	}
	return &Worker{
		storePath: storePath,
		backupDir: backupDir,
		now:       now,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (w *Worker) loop() {
	defer close(w.done)
	log := xlog.Tagged("snapshot")
	for {
		if err := w.cycle(); err != nil {
			log.WithError(err).Error("snapshot cycle failed")
		}

		select {
		case <-w.quit:
			return
		case <-time.After(Interval):
		}
	}
}

// cycle performs one backup-and-prune pass. Tests call it directly on a
// worker from newWorker instead of waiting an hour.
func (w *Worker) cycle() error {
	name := prefix + w.now().Format("20060102-150405") + ".db"
	dest := filepath.Join(w.backupDir, name)

	if err := copyFile(w.storePath, dest); err != nil {
		return errors.Wrapf(err, "failed to back up store to %q", dest)
	}
	xlog.Tagged("snapshot").Infof("created backup %s", dest)

	return w.prune()
}

func (w *Worker) prune() error {
	entries, err := os.ReadDir(w.backupDir)
	if err != nil {
		return errors.Wrap(err, "failed to list backup directory")
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) <= Retain {
		return nil
	}
	for _, name := range names[:len(names)-Retain] {
		if err := os.Remove(filepath.Join(w.backupDir, name)); err != nil {
			return errors.Wrapf(err, "failed to prune backup %q", name)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// Stop signals the loop to exit and waits for it to do so.
func (w *Worker) Stop() {
	close(w.quit)
	<-w.done
}

// Cycle runs one backup-and-prune pass immediately, outside the hourly
// schedule.
func (w *Worker) Cycle() error {
	return w.cycle()
}
