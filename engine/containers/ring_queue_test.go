package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[string](2)
	assert.True(t, rq.IsEmpty())

	require.NoError(t, rq.Enqueue("a"))
	require.NoError(t, rq.Enqueue("b"))
	assert.True(t, rq.IsFull())
	assert.ErrorIs(t, rq.Enqueue("c"), ErrQueueFull)

	assert.Equal(t, 2, rq.Len())

	v, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	// wraps around the backing slice
	require.NoError(t, rq.Enqueue("c"))
	assert.Equal(t, 2, rq.Len())

	v, _ = rq.Dequeue()
	assert.Equal(t, "b", v)
	v, _ = rq.Dequeue()
	assert.Equal(t, "c", v)

	_, err = rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	assert.Equal(t, 0, rq.Len())
}

func TestRingQueueZeroSize(t *testing.T) {
	rq := NewRingQueue[int](0)
	assert.True(t, rq.IsFull())
	assert.ErrorIs(t, rq.Enqueue(1), ErrQueueFull)
}
