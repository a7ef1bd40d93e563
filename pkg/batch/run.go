package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/irmap/internal/ctxlog"
)

// Run processes dirs on a fixed number of workers and sends one Result per
// design to results. Folders are split round-robin across workers. A failing
// design never stops its siblings; Run only returns an error when ctx is
// cancelled. results is closed when Run returns.
func (r *Runner) Run(ctx context.Context, dirs []string, results chan<- Result) error {
	defer close(results)

	logger := ctxlog.FromContext(ctx)
	workers := min(r.opts.Workers, len(dirs))
	logger.Info("batch started", "designs", len(dirs), "workers", workers)

	g, ctx := errgroup.WithContext(ctx)
	for _, share := range divideN(dirs, workers) {
		share := share
		g.Go(func() error {
			for _, dir := range share {
				if err := ctx.Err(); err != nil {
					return err
				}
				results <- r.runOne(ctx, dir)
			}
			return nil
		})
	}
	return g.Wait()
}

// runOne processes a single design and converts a panic into an error.
func (r *Runner) runOne(ctx context.Context, dir string) (res Result) {
	design := filepath.Base(dir)
	logger := ctxlog.FromContext(ctx).With("design", design)
	start := time.Now()
	res = Result{Design: design, Dir: dir}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("design panicked", "panic", p, "stack", string(debug.Stack()))
			res.Err = fmt.Errorf("batch: %s: panic: %v", design, p)
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			logger.Error("design failed", "error", res.Err, "duration", res.Duration)
			return
		}
		logger.Info("design done", "output", res.Output, "duration", res.Duration)
	}()

	res.Output, res.Err = r.Process(ctx, dir)
	return res
}

// divideN splits items round-robin into n shares. Empty shares are dropped.
func divideN[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	shares := make([][]T, n)
	for i, it := range items {
		shares[i%n] = append(shares[i%n], it)
	}
	out := shares[:0]
	for _, s := range shares {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}
