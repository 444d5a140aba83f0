package watcher

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatcherRebuildsOnChange(t *testing.T) {
	var mtime atomic.Value
	mtime.Store(time.Unix(100, 0))
	var rebuilds int64

	w := New(
		func() (time.Time, error) {
			return mtime.Load().(time.Time), nil
		},
		func() error {
			atomic.AddInt64(&rebuilds, 1)
			return nil
		},
	)
	defer w.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&rebuilds) >= 1
	}, time.Second, 10*time.Millisecond)

	before := atomic.LoadInt64(&rebuilds)
	mtime.Store(time.Unix(200, 0))
	w.Notify()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&rebuilds) > before
	}, time.Second, 10*time.Millisecond)
}
