package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueue(t *testing.T) {
	q := NewQueue[int](8)
	assert.NotNil(t, q)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 8, q.Cap())
	assert.False(t, q.Closed())
}

func TestNewQueue_DefaultSize(t *testing.T) {
	q := NewQueue[int](0)
	assert.Equal(t, DefaultQueueSize, q.Cap())
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[string](4)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, "a"))
	require.NoError(t, q.Push(ctx, "b"))
	require.NoError(t, q.Push(ctx, "c"))
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestQueue_PushBlocksWhenFull(t *testing.T) {
	q := NewQueue[int](1)
	require.NoError(t, q.Push(context.Background(), 1))

	pushed := make(chan struct{})
	go func() {
		_ = q.Push(context.Background(), 2)
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push on a full queue should block")
	case <-time.After(50 * time.Millisecond):
	}

	v, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push should resume once the queue has room")
	}
}

func TestQueue_PushContextCancelled(t *testing.T) {
	q := NewQueue[int](1)
	require.NoError(t, q.Push(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Push(ctx, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_CloseDrainsThenEnds(t *testing.T) {
	q := NewQueue[int](4)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, 1))
	require.NoError(t, q.Push(ctx, 2))
	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.ErrorIs(t, q.Push(ctx, 3), ErrQueueClosed)

	v, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueue_CloseWakesBlockedPop(t *testing.T) {
	q := NewQueue[int](1)
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Pop(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked Pop should observe Close")
	}
}

func TestQueue_TryPopAndClear(t *testing.T) {
	q := NewQueue[int](4)
	_, ok := q.TryPop()
	assert.False(t, ok)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(ctx, i))
	}
	v, ok := q.TryPop()
	assert.True(t, ok)
	assert.Equal(t, 0, v)

	assert.Equal(t, 2, q.Clear())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := NewQueue[int](100)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = q.Push(context.Background(), i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, q.Len())
}
