package serializer

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmitRunsInOrder(t *testing.T) {
	s := New()
	defer s.Stop()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		err := s.Submit(func() error {
			order = append(order, i)
			return nil
		})
		assert.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSubmitPropagatesError(t *testing.T) {
	s := New()
	defer s.Stop()

	err := s.Submit(func() error { return assert.AnError })
	assert.Equal(t, assert.AnError, err)
}

func TestStopRejectsFurtherSubmits(t *testing.T) {
	s := New()
	s.Stop()
	err := s.Submit(func() error { return nil })
	assert.Error(t, err)
}

func TestConcurrentSubmitSerialized(t *testing.T) {
	s := New()
	defer s.Stop()

	var counter int64
	var maxObserved int64
	var wg sync.WaitGroup
	const n = 50
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = s.Submit(func() error {
				v := atomic.AddInt64(&counter, 1)
				if v > atomic.LoadInt64(&maxObserved) {
					atomic.StoreInt64(&maxObserved, v)
				}
				atomic.AddInt64(&counter, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), maxObserved)
}
