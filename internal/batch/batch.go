// Package batch runs work items in fixed-size concurrent chunks with a pause
// between chunks, which bounds outbound load against a rate-limited oracle.
package batch

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// DefaultDelay is the pause between chunks.
const DefaultDelay = 200 * time.Millisecond

// Options configure Process.
type Options struct {
	// ChunkSize is both the chunk length and the number of items in flight.
	ChunkSize int
	// Delay is slept between chunks. Zero disables it.
	Delay time.Duration
	// Name labels progress logs.
	Name string
	// Progress is called after each chunk with cumulative counts. Defaults to
	// an info log every chunk.
	Progress func(done, total int)
	Logger   *zap.Logger
}

// Result is the outcome of one item. Results keep input order.
type Result[R any] struct {
	Value R
	Err   error
}

// Process runs fn over items chunk by chunk. Item errors are collected, never
// returned early. When ctx ends, remaining items get ctx.Err().
func Process[T, R any](ctx context.Context, items []T, opts Options, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(done, total int) {
			logger.Info("batch progress",
				zap.String("batch", opts.Name),
				zap.Int("done", done),
				zap.Int("total", total),
			)
		}
	}

	pool := pond.NewPool(chunk)
	defer pool.StopAndWait()

	for start := 0; start < len(items); start += chunk {
		end := start + chunk
		if end > len(items) {
			end = len(items)
		}

		if err := ctx.Err(); err != nil {
			markRemaining(results, start, err)
			return results
		}

		// Tasks never fail at the pool level, so Wait returns only after
		// every task in the chunk has finished writing its result.
		group := pool.NewGroup()
		for i := start; i < end; i++ {
			group.Submit(func() {
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					return
				}
				v, err := fn(ctx, items[i])
				results[i] = Result[R]{Value: v, Err: err}
			})
		}
		_ = group.Wait()

		progress(end, len(items))

		if end < len(items) && opts.Delay > 0 {
			t := time.NewTimer(opts.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				markRemaining(results, end, ctx.Err())
				return results
			case <-t.C:
			}
		}
	}
	return results
}

func markRemaining[R any](results []Result[R], from int, err error) {
	for i := from; i < len(results); i++ {
		results[i].Err = err
	}
}

// Chunk splits items into slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// Errors counts failed results.
func Errors[R any](results []Result[R]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
