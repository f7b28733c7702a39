// Package parallel fans loop bodies across worker goroutines. The host
// backend uses it to run per-kernel correlation work on all cores.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how For splits work across goroutines.
type Config struct {
	Enabled    bool // run in parallel at all
	NumWorkers int  // goroutines to spawn
	MinPerTask int  // below this count, run sequentially
}

// DefaultConfig sizes workers to the CPU count. MinPerTask is 2 because
// callers hand For coarse units (whole kernel planes), not scalar work.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinPerTask: 2,
	}
}

// For runs f(i) for i in [0, n). Iterations must be independent; f runs
// concurrently with itself when parallelism kicks in.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinPerTask {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	workers := cfg.NumWorkers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
