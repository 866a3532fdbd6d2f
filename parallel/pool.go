package parallel

import (
	"runtime"
	"sync"
)

type (
	WorkerFunc func(func())
	WaitFunc   func(done bool)
	CancelFunc func()
)

// Pool runs submitted functions on a fixed set of goroutines. With a single
// worker Do runs the function inline.
type Pool struct {
	wg      sync.WaitGroup
	workers int
	Do      WorkerFunc
	Wait    WaitFunc
	Cancel  CancelFunc
}

func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{
		workers: numWorkers,
		Do: func(f func()) {
			f()
		},
		Wait:   func(bool) {},
		Cancel: func() {},
	}

	if numWorkers > 1 {
		workChan := make(chan func(), numWorkers)

		for range numWorkers {
			pool.wg.Go(func() {
				for f := range workChan {
					f()
				}
			})
		}

		pool.Do = func(f func()) {
			workChan <- f
		}

		pool.Wait = func(done bool) {
			if done {
				pool.Cancel()
			}
			pool.wg.Wait()
		}
		pool.Cancel = sync.OnceFunc(func() { close(workChan) })
	}

	return pool
}

// Workers is the number of goroutines serving the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Range splits [0, n) into at most Workers() contiguous chunks of at least
// minChunk items, runs f on each and waits for all of them. The pool stays
// open, and several goroutines may call Range on it at once.
func (p *Pool) Range(n, minChunk int, f func(lo, hi int)) {
	if minChunk < 1 {
		minChunk = 1
	}
	chunks := min(p.workers, max(1, n/minChunk))
	size := (n + chunks - 1) / chunks

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		wg.Add(1)
		p.Do(func() {
			defer wg.Done()
			f(lo, hi)
		})
	}
	wg.Wait()
}
