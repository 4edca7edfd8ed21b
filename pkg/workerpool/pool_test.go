package workerpool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const n = 100
	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.NoError(t, pool.SubmitWait(context.Background(), func() {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()
	assert.Equal(t, int64(n), count.Load())
}

func TestPool_ErrPoolFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(func() {
		close(started)
		<-blocker
	}))
	<-started

	// buffer = 2 × workers
	require.NoError(t, pool.Submit(func() {}))
	require.NoError(t, pool.Submit(func() {}))
	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolFull)

	close(blocker)
}

func TestPool_ErrPoolClosed(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()
	pool.Shutdown()

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)
	assert.ErrorIs(t, pool.SubmitWait(context.Background(), func() {}), workerpool.ErrPoolClosed)
}

func TestPool_SubmitWaitHonoursContext(t *testing.T) {
	pool := workerpool.New(1)
	blocker := make(chan struct{})
	defer func() {
		close(blocker)
		pool.Shutdown()
	}()
	for i := 0; i < 3; i++ {
		_ = pool.Submit(func() { <-blocker })
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.SubmitWait(ctx, func() {}), context.DeadlineExceeded)
}

func TestPool_PanicRecovery(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	require.NoError(t, pool.SubmitWait(context.Background(), func() { panic("bad task") }))

	done := make(chan struct{})
	require.NoError(t, pool.SubmitWait(context.Background(), func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestEachWaitsForAllItems(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Shutdown()

	var mu sync.Mutex
	seen := map[uint]bool{}
	err := workerpool.Each(context.Background(), pool, []uint{1, 2, 3, 4, 5}, func(_ context.Context, id uint) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen[id] = true
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Len(t, seen, 5)
}
