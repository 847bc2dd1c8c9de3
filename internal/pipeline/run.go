package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/agentic-research/docmap/internal/collector"
	"github.com/agentic-research/docmap/internal/doc"
	"github.com/agentic-research/docmap/internal/source"
	"golang.org/x/sync/errgroup"
)

// RunOptions tunes Run.
type RunOptions struct {
	// Workers bounds concurrent documents; 0 means GOMAXPROCS.
	Workers int
	// Stats receives per-document counts; nil skips counting.
	Stats   *Stats
	Metrics *Metrics
	Logger  *slog.Logger
}

// Run feeds every document of src through stage on a bounded worker pool.
// A collector error stops the run. Fatal errors do not: they are gathered
// and returned, joined, once every document has been seen.
func Run(ctx context.Context, src source.Source, stage Stage, out collector.Collector, opts RunOptions) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		mu     sync.Mutex
		fatals []error
	)
	srcErr := src.Each(gctx, func(d *doc.Document) error {
		g.Go(func() error {
			start := time.Now()
			res, err := stage.Process(gctx, d, out)
			if opts.Stats != nil {
				opts.Stats.Record(res)
			}
			opts.Metrics.Observe(res, time.Since(start))

			var fe *FatalError
			if errors.As(err, &fe) {
				mu.Lock()
				fatals = append(fatals, err)
				mu.Unlock()
				return nil
			}
			return err
		})
		return nil
	})

	werr := g.Wait()
	if srcErr != nil && errors.Is(srcErr, context.Canceled) && werr != nil {
		// the source stopped because a worker failed
		srcErr = nil
	}
	if opts.Stats != nil {
		logger.Info("run finished", "stats", opts.Stats.String())
	}
	return errors.Join(srcErr, werr, errors.Join(fatals...))
}
