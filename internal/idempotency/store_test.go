package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, time.Hour)
}

func TestReserveAndFinalize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reserved, err := store.Reserve(ctx, "key-1", "hash-1")
	require.NoError(t, err)
	assert.True(t, reserved)

	// The key is held, a second reservation must fail.
	reserved, err = store.Reserve(ctx, "key-1", "hash-1")
	require.NoError(t, err)
	assert.False(t, reserved)

	// While in progress, lookups report ErrInProgress.
	_, err = store.Lookup(ctx, "key-1", "hash-1")
	assert.ErrorIs(t, err, ErrInProgress)

	_, err = store.Finalize(ctx, "key-1", "hash-1", 201, []byte(`{"ok":true}`), "application/json")
	require.NoError(t, err)

	rec, err := store.Lookup(ctx, "key-1", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, 201, rec.Status)
	assert.Equal(t, []byte(`{"ok":true}`), rec.Body)
	assert.Equal(t, "application/json", rec.ContentType)
}

func TestLookupUnknownKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Lookup(context.Background(), "missing", "hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupHashMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reserved, err := store.Reserve(ctx, "key-2", "hash-a")
	require.NoError(t, err)
	require.True(t, reserved)

	_, err = store.Lookup(ctx, "key-2", "hash-b")
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestReleaseFreesKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reserved, err := store.Reserve(ctx, "key-3", "hash")
	require.NoError(t, err)
	require.True(t, reserved)

	store.Release(ctx, "key-3")

	reserved, err = store.Reserve(ctx, "key-3", "hash")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestWaitForCompletion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reserved, err := store.Reserve(ctx, "key-4", "hash")
	require.NoError(t, err)
	require.True(t, reserved)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rec, waitErr := store.WaitForCompletion(ctx, "key-4", "hash")
		assert.NoError(t, waitErr)
		if rec != nil {
			assert.Equal(t, 200, rec.Status)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	_, err = store.Finalize(ctx, "key-4", "hash", 200, []byte(`{}`), "application/json")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForCompletion did not return after finalize")
	}
}

func TestWaitForCompletionContextCancel(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	reserved, err := store.Reserve(ctx, "key-5", "hash")
	require.NoError(t, err)
	require.True(t, reserved)

	_, err = store.WaitForCompletion(ctx, "key-5", "hash")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
