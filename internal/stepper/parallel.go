package stepper

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"cells/internal/core"
)

// SourceResolver resolves a cell with an explicit randomness source, so a
// single read-only rule table can serve many goroutines.
type SourceResolver interface {
	ResolveWith(src core.Source, cell core.State, neighbors []core.State) core.State
}

// Options configures StepParallel.
type Options struct {
	// Workers bounds the number of goroutines. Zero means GOMAXPROCS.
	Workers int
	// Seed and Generation select the per-row random streams.
	Seed       int64
	Generation uint64
}

// StepParallel computes the next generation with rows spread across workers.
// Row r draws from its own stream derived from (Seed, Generation, r), so the
// output depends only on the options, never on the worker count or
// scheduling. It returns ctx.Err() and no grid if cancelled.
func StepParallel(ctx context.Context, g *core.Grid, r SourceResolver, opts Options) (*core.Grid, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	next := core.NewGrid(g.H(), g.W())

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for row := 0; row < g.H(); row++ {
		row := row
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src := core.NewStreamRNG(opts.Seed, rowStream(opts.Generation, row))
			stepRows(g, next, row, row+1, func(cell core.State, neighbors []core.State) core.State {
				return r.ResolveWith(src, cell, neighbors)
			})
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

// rowStream mixes the generation and row into a PCG stream selector.
func rowStream(generation uint64, row int) uint64 {
	x := generation<<32 ^ uint64(row)
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	return x
}
