package detections

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPool(t *testing.T, factory SessionFactory, size int, timeout time.Duration) *SessionPool {
	t.Helper()
	pool, err := NewSessionPool(factory, size, timeout, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestSessionPool_AcquireRelease(t *testing.T) {
	req := require.New(t)
	pool := newTestPool(t, emptySessionFactory(), 2, time.Second)

	a, err := pool.Acquire(context.Background())
	req.NoError(err)
	b, err := pool.Acquire(context.Background())
	req.NoError(err)
	req.NotSame(a, b)
	req.Equal(2, pool.Metrics().InUse)

	pool.Release(a)
	pool.Release(b)

	m := pool.Metrics()
	req.Equal(2, m.Size)
	req.Equal(0, m.InUse)
	req.Equal(int64(2), m.TotalAcquired)
	req.Equal(int64(2), m.TotalReleased)
}

func TestSessionPool_AcquireTimeout(t *testing.T) {
	req := require.New(t)
	pool := newTestPool(t, emptySessionFactory(), 1, 30*time.Millisecond)

	s, err := pool.Acquire(context.Background())
	req.NoError(err)
	defer pool.Release(s)

	_, err = pool.Acquire(context.Background())
	req.ErrorIs(err, ErrAcquireTimeout)
	req.Equal(int64(1), pool.Metrics().AcquireFailures)
}

func TestSessionPool_AcquireHonoursContext(t *testing.T) {
	req := require.New(t)
	pool := newTestPool(t, emptySessionFactory(), 1, time.Minute)

	s, err := pool.Acquire(context.Background())
	req.NoError(err)
	defer pool.Release(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pool.Acquire(ctx)
	req.ErrorIs(err, context.Canceled)
}

func TestSessionPool_WaitsForRelease(t *testing.T) {
	req := require.New(t)
	pool := newTestPool(t, emptySessionFactory(), 1, time.Second)

	s, err := pool.Acquire(context.Background())
	req.NoError(err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		pool.Release(s)
	}()

	got, err := pool.Acquire(context.Background())
	req.NoError(err)
	req.Same(s, got)
	pool.Release(got)
}

func TestSessionPool_Closed(t *testing.T) {
	req := require.New(t)
	pool, err := NewSessionPool(emptySessionFactory(), 1, time.Second, zap.NewNop())
	req.NoError(err)

	s, err := pool.Acquire(context.Background())
	req.NoError(err)

	pool.Close()
	pool.Close()

	_, err = pool.Acquire(context.Background())
	req.ErrorIs(err, ErrPoolClosed)

	pool.Release(s)
	req.True(s.session.(*fakeRunner).destroyed.Load())
}

func TestSessionPool_FactoryFailure(t *testing.T) {
	req := require.New(t)
	var calls atomic.Int32
	factory := func() (*ModelSession, error) {
		if calls.Add(1) > 1 {
			return nil, errFactory
		}
		s, _ := newFakeSession(0, 0, nil)
		return s, nil
	}

	pool, err := NewSessionPool(factory, 2, time.Second, zap.NewNop())
	req.ErrorIs(err, errFactory)
	req.Nil(pool)
}

func TestSessionPool_DiscardAndReplenish(t *testing.T) {
	req := require.New(t)
	var fail atomic.Bool
	factory := func() (*ModelSession, error) {
		if fail.Load() {
			return nil, errFactory
		}
		s, _ := newFakeSession(0, 0, nil)
		return s, nil
	}
	pool := newTestPool(t, factory, 1, 20*time.Millisecond)

	s, err := pool.Acquire(context.Background())
	req.NoError(err)
	pool.Discard(s)
	req.Equal(0, pool.Live())
	req.Equal(int64(1), pool.Metrics().Discarded)

	fail.Store(true)
	pool.replenish()
	req.Equal(0, pool.Live())
	req.Len(pool.LastErrors(), 1)

	fail.Store(false)
	pool.replenish()
	req.Equal(1, pool.Live())

	s, err = pool.Acquire(context.Background())
	req.NoError(err)
	pool.Release(s)
}
