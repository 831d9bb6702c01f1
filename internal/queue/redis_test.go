package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := DefaultConfig("test")
	cfg.UseRedis = true
	cfg.RedisAddr = mr.Addr()

	q, err := NewRedisQueue(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })

	return q, mr
}

func TestRedisQueueEnqueueDequeue(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}

	require.NoError(t, q.Enqueue(ctx, payload{Name: "first"}))
	require.NoError(t, q.Enqueue(ctx, payload{Name: "second"}))

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, length)

	items, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var first payload
	require.NoError(t, json.Unmarshal(items[0].(json.RawMessage), &first))
	assert.Equal(t, "first", first.Name)
}

func TestRedisQueueDequeueWithTimeoutEmpty(t *testing.T) {
	q, _ := newTestRedisQueue(t)

	items, err := q.DequeueWithTimeout(context.Background(), 10, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRedisQueueOrdering(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(ctx, i))
	}

	items, err := q.Dequeue(ctx, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)

	var v int
	require.NoError(t, json.Unmarshal(items[0].(json.RawMessage), &v))
	assert.Equal(t, 0, v)

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, length)
}

func TestRedisDeadLetterQueue(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	dlq := NewRedisDeadLetterQueue(q.Client(), "test")
	ctx := context.Background()

	require.NoError(t, dlq.Add(ctx, map[string]string{"id": "r1"}, errors.New("insert failed")))

	items, err := dlq.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "insert failed", items[0].Error)

	require.NoError(t, dlq.Remove(ctx, items[0].ID))
	assert.ErrorIs(t, dlq.Remove(ctx, items[0].ID), ErrItemNotFound)
}

func TestRedisDeadLetterQueueListAll(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	dlq := NewRedisDeadLetterQueue(q.Client(), "test")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, dlq.Add(ctx, map[string]int{"seq": i}, errors.New("insert failed")))
	}

	// maxItems <= 0 returns every item
	items, err := dlq.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = dlq.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
