package parallel_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"gifblobber/parallel"

	"github.com/stretchr/testify/require"
)

func TestTask(t *testing.T) {
	var calls atomic.Int32
	task := parallel.Go(func() (int, error) {
		calls.Add(1)
		return 42, nil
	})

	for range 3 {
		v, err := task.Wait()
		require.NoError(t, err)
		require.Equal(t, 42, v)
	}
	require.Equal(t, int32(1), calls.Load())

	select {
	case <-task.Done():
	default:
		t.Fatal("done channel still open after Wait")
	}
}

func TestTaskError(t *testing.T) {
	boom := errors.New("boom")
	_, err := parallel.Go(func() (string, error) { return "", boom }).Wait()
	require.ErrorIs(t, err, boom)
}

func TestTaskThen(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	var got int
	parallel.Go(func() (int, error) { return 7, nil }).Then(func(v int, err error) {
		defer wg.Done()
		require.NoError(t, err)
		got = v
	})
	wg.Wait()
	require.Equal(t, 7, got)
}

func TestPoolRange(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		for _, n := range []int{0, 1, 5, 100} {
			seen := make([]atomic.Int32, n)
			pool := parallel.Start(workers)
			pool.Range(n, 2, func(lo, hi int) {
				require.LessOrEqual(t, lo, hi)
				for i := lo; i < hi; i++ {
					seen[i].Add(1)
				}
			})
			pool.Wait(true)
			for i := range seen {
				require.Equalf(t, int32(1), seen[i].Load(), "workers=%d n=%d item %d", workers, n, i)
			}
		}
	}
}

func TestPoolDo(t *testing.T) {
	pool := parallel.Start(4)
	require.Equal(t, 4, pool.Workers())

	var count atomic.Int32
	for range 50 {
		pool.Do(func() { count.Add(1) })
	}
	pool.Wait(true)
	require.Equal(t, int32(50), count.Load())

	// cancelling twice is harmless
	pool.Cancel()
}

func TestPoolRangeShared(t *testing.T) {
	const workers = 3
	pool := parallel.Start(workers)
	defer pool.Wait(true)

	var running, peak atomic.Int32
	var total atomic.Int64
	var wg sync.WaitGroup
	for range 6 {
		wg.Go(func() {
			pool.Range(90, 1, func(lo, hi int) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				total.Add(int64(hi - lo))
				running.Add(-1)
			})
		})
	}
	wg.Wait()

	require.Equal(t, int64(6*90), total.Load())
	require.LessOrEqual(t, peak.Load(), int32(workers))
}
