package taskqueue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d := NewDispatcher(Config{Workers: 2, QueueSize: 8}, NewInMemoryDedupStore(), zap.NewNop())
	d.Start()
	t.Cleanup(d.Stop)
	return d
}

func TestDispatcher_RunsQueuedTask(t *testing.T) {
	d := newTestDispatcher(t)

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), Task{
		Name: "once",
		Run: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestDispatcher_DuplicateNameRejected(t *testing.T) {
	d := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{})
	err := d.Enqueue(context.Background(), Task{
		Name: "import_customers",
		Run: func(ctx context.Context) error {
			close(started)
			<-block
			return nil
		},
	})
	require.NoError(t, err)
	<-started

	err = d.Enqueue(context.Background(), Task{
		Name: "import_customers",
		Run:  func(ctx context.Context) error { return nil },
	})
	assert.ErrorIs(t, err, ErrDuplicateTask)

	close(block)
}

func TestDispatcher_NameReleasedAfterCompletion(t *testing.T) {
	d := newTestDispatcher(t)

	var runs atomic.Int32
	run := func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}

	require.NoError(t, d.Enqueue(context.Background(), Task{Name: "rebuild", Run: run}))
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, d.Enqueue(context.Background(), Task{Name: "rebuild", Run: run}))
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	store := NewInMemoryDedupStore()
	d := NewDispatcher(Config{Workers: 2, QueueSize: 8}, store, zap.NewNop())
	d.Start()
	d.Stop()

	err := d.Enqueue(context.Background(), Task{
		Name: "rebuild",
		Run:  func(ctx context.Context) error { return nil },
	})
	assert.ErrorIs(t, err, ErrDispatcherStopped)

	// the rejected submission must not leave its name claimed
	claimed, err := store.Claim(context.Background(), "rebuild", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1, QueueSize: 1}, NewInMemoryDedupStore(), zap.NewNop())
	d.Start()
	d.Stop()
	d.Stop()
}

func TestDispatcher_BlankNameGetsRandomName(t *testing.T) {
	d := newTestDispatcher(t)

	for i := 0; i < 3; i++ {
		err := d.Enqueue(context.Background(), Task{
			Run: func(ctx context.Context) error { return nil },
		})
		require.NoError(t, err)
	}
}

func TestRandomTaskName(t *testing.T) {
	a := RandomTaskName("import")
	b := RandomTaskName("import")

	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "import_")
}

func TestInMemoryDedupStore(t *testing.T) {
	store := NewInMemoryDedupStore()
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, store.Release(ctx, "job"))

	claimed, err = store.Claim(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestInMemoryDedupStore_ExpiredClaimCanBeRetaken(t *testing.T) {
	store := NewInMemoryDedupStore()
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "job", time.Millisecond)
	require.NoError(t, err)
	assert.True(t, claimed)

	time.Sleep(5 * time.Millisecond)

	claimed, err = store.Claim(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}
