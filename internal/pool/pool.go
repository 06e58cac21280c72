// Package pool runs indexed jobs on a bounded set of workers.
package pool

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefaultConcurrency is used when a caller passes concurrency <= 0.
const DefaultConcurrency = 3

// Map runs fn over jobs with at most concurrency workers. Results come back
// in job order. The first failure cancels the remaining jobs and is returned
// wrapped with its job index.
func Map[J, R any](
	ctx context.Context,
	jobs []J,
	concurrency int,
	fn func(ctx context.Context, job J) (R, error),
) ([]R, error) {
	if len(jobs) == 0 {
		return []R{}, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type jobResult struct {
		Index  int
		Result R
		Error  error
	}

	workChan := make(chan int)
	resultChan := make(chan jobResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(jobs); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					result, err := fn(ctx, jobs[idx])
					if err != nil {
						cancel()
					}
					resultChan <- jobResult{
						Index:  idx,
						Result: result,
						Error:  err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range jobs {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]jobResult, 0, len(jobs))
	var firstErr error
	for result := range resultChan {
		if result.Error != nil && firstErr == nil {
			firstErr = fmt.Errorf("job %d failed: %w", result.Index, result.Error)
			cancel()
		}
		if result.Error == nil {
			results = append(results, result)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(results) < len(jobs) {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	out := make([]R, len(results))
	for i, r := range results {
		out[i] = r.Result
	}
	return out, nil
}

// Batch splits items into consecutive slices of at most size elements.
func Batch[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var batches [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}
