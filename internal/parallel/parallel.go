// Package parallel splits row-wise kernel work across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum elements per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16 * 1024,
	}
}

// Sequential returns a Config that always runs on the calling goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1}
}

// Rows executes f over disjoint row ranges [start, end) covering [0, rows).
//
// rowWidth is the number of elements per row and is used to keep each
// goroutine above MinChunkSize elements. Runs sequentially when parallelism
// is disabled or the work is too small to split. Returns after every range
// has completed.
func Rows(rows, rowWidth int, f func(start, end int), cfg Config) {
	if rows <= 0 {
		return
	}

	minRows := 1
	if rowWidth > 0 && cfg.MinChunkSize > rowWidth {
		minRows = (cfg.MinChunkSize + rowWidth - 1) / rowWidth
	}
	workers := max(cfg.NumWorkers, 1)

	if !cfg.Enabled || workers == 1 || rows < 2*minRows {
		// Sequential fallback.
		f(0, rows)
		return
	}

	var wg sync.WaitGroup
	chunk := max((rows+workers-1)/workers, minRows)

	for start := 0; start < rows; start += chunk {
		end := min(start+chunk, rows)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}
