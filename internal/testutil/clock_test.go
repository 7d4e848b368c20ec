package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_StartsAfterEpoch(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
}

func TestDeterministicClock_AdvancesMonotonically(t *testing.T) {
	clock := NewDeterministicClock()

	prev := clock.Now()
	for i := 0; i < 5; i++ {
		next := clock.Now()
		assert.True(t, next.After(prev))
		prev = next
	}
	assert.Equal(t, int64(6), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	first := clock.Now()
	clock.Now()

	clock.Reset()

	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, first, clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), clock.Current())
}
