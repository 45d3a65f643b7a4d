package graph

import "sync"

// minChunk is the fewest vertices worth handing to a goroutine.
const minChunk = 64

// parallelFor calls fn over disjoint ranges covering [0, n), using at most
// workers goroutines. fn must only write to indices inside its range.
func parallelFor(n, workers int, fn func(start, end int)) {
	if workers > n/minChunk {
		workers = n / minChunk
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(start, end)
		}()
	}
	wg.Wait()
}
