package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	table := New(time.Second)

	release, err := table.Acquire(context.Background(), "vet-1")
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	release()
	assert.Equal(t, 0, table.Len())

	// Released keys can be taken again
	release2, err := table.Acquire(context.Background(), "vet-1")
	require.NoError(t, err)
	release2()
}

func TestReleaseIsIdempotent(t *testing.T) {
	table := New(time.Second)

	release, err := table.Acquire(context.Background(), "vet-1")
	require.NoError(t, err)

	release()
	release()

	_, err = table.Acquire(context.Background(), "vet-1")
	assert.NoError(t, err)
}

func TestHeldKeyTimesOut(t *testing.T) {
	table := New(50 * time.Millisecond)

	release, err := table.Acquire(context.Background(), "vet-1")
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = table.Acquire(context.Background(), "vet-1")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	table := New(50 * time.Millisecond)

	release1, err := table.Acquire(context.Background(), "vet-1")
	require.NoError(t, err)
	defer release1()

	release2, err := table.Acquire(context.Background(), "vet-2")
	require.NoError(t, err)
	defer release2()

	assert.Equal(t, 2, table.Len())
}

func TestContextCancellation(t *testing.T) {
	table := New(time.Minute)

	release, err := table.Acquire(context.Background(), "vet-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = table.Acquire(ctx, "vet-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMutualExclusionUnderContention(t *testing.T) {
	table := New(5 * time.Second)

	var inCritical, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := table.Acquire(context.Background(), "drug-1")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			mu.Lock()
			inCritical++
			if inCritical > max {
				max = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max, "two goroutines held the same key at once")
	assert.Equal(t, 0, table.Len())
}
