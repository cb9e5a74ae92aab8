// Package parallel provides data-parallel execution over batch elements.
//
// Gate application is parallel across the batch dimension only: the gates
// of one circuit are sequentially dependent and are never reordered.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Number of worker goroutines to use.
	MinWork    int  // Minimum total work (elements x cost) before fanning out.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinWork:    1 << 14, // Below this the goroutine overhead dominates.
	}
}

// Sequential returns a config that never spawns goroutines.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1}
}

// For executes f(i) for i in [0, n) where each call costs roughly cost
// units of work. Falls back to sequential execution if parallelism is
// disabled or the total work is too small.
func For(n, cost int, f func(i int), cfg Config) {
	workers := min(cfg.NumWorkers, n)
	if !cfg.Enabled || workers < 2 || n*max(cost, 1) < cfg.MinWork {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers

	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch runs f(b, lo, hi) over batch elements. When the batch is
// smaller than the worker count, each element's index range [0, size) is
// split into blocks as well so a single large state still uses all cores.
// Blocks never overlap, so f may write to its own range without locking.
func ForBatch(batch, size int, f func(b, lo, hi int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers < 2 || batch*size < cfg.MinWork {
		for b := 0; b < batch; b++ {
			f(b, 0, size)
		}
		return
	}

	split := 1
	if batch < cfg.NumWorkers {
		split = min((cfg.NumWorkers+batch-1)/batch, max(size/cfg.MinWork, 1))
	}
	block := (size + split - 1) / split

	For(batch*split, block, func(k int) {
		b, part := k/split, k%split
		lo := part * block
		hi := min(lo+block, size)
		if lo < hi {
			f(b, lo, hi)
		}
	}, Config{Enabled: true, NumWorkers: cfg.NumWorkers})
}
