package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[int](4, DropOldest)

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Put(i))
	}
	assert.Equal(t, 3, q.Len())

	for i := 1; i <= 3; i++ {
		got, ok := q.TryNext()
		require.True(t, ok)
		assert.Equal(t, i, got)
	}

	_, ok := q.TryNext()
	assert.False(t, ok)
}

func TestQueue_DropOldest(t *testing.T) {
	q := New[int](2, DropOldest)

	require.NoError(t, q.Put(1))
	require.NoError(t, q.Put(2))
	require.NoError(t, q.Put(3))

	got, ok := q.TryNext()
	require.True(t, ok)
	assert.Equal(t, 2, got, "oldest item is evicted on overflow")
	assert.Equal(t, uint64(1), q.Dropped())
}

func TestQueue_DropNewest(t *testing.T) {
	q := New[int](2, DropNewest)

	require.NoError(t, q.Put(1))
	require.NoError(t, q.Put(2))
	require.NoError(t, q.Put(3))

	got, ok := q.TryNext()
	require.True(t, ok)
	assert.Equal(t, 1, got, "incoming item is discarded on overflow")
	assert.Equal(t, uint64(1), q.Dropped())
}

func TestQueue_NextBlocksUntilPut(t *testing.T) {
	q := New[string](1, DropOldest)

	var wg sync.WaitGroup
	wg.Add(1)
	var got string
	var ok bool
	go func() {
		defer wg.Done()
		got, ok = q.Next()
	}()

	require.NoError(t, q.Put("hello"))
	wg.Wait()
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestQueue_CloseDrainsThenStops(t *testing.T) {
	q := New[int](4, DropOldest)
	require.NoError(t, q.Put(7))
	q.Close()

	got, ok := q.Next()
	require.True(t, ok, "queued items survive close")
	assert.Equal(t, 7, got)

	_, ok = q.Next()
	assert.False(t, ok, "drained closed queue stops")

	assert.Error(t, q.Put(8), "writes to a closed queue fail")
}

func TestQueue_CloseWakesBlockedReader(t *testing.T) {
	q := New[int](1, DropOldest)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Next()
		done <- ok
	}()

	q.Close()
	assert.False(t, <-done)
}
