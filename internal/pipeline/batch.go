package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dcxsea/fieldreport/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor generates reports for several datasets concurrently.
// Each dataset gets a fresh pipeline and its own run.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each dataset.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of datasets processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results holds the runs in dataset order. Access is synchronized
	// via mu.
	results []*model.Run
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 3 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     3,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs the pipeline for every dataset and returns the runs
// in dataset order. A failed run does not stop the others; its failure
// is recorded in its step results. The error is non-nil only when the
// batch was cancelled, in which case runs that never started are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, datasets []model.Dataset) ([]*model.Run, error) {
	bp.logger.Info("starting batch processing",
		"total_datasets", len(datasets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.mu.Lock()
	bp.results = make([]*model.Run, len(datasets))
	bp.mu.Unlock()

	err := bp.run(ctx, datasets, func(run *model.Run, i int) {
		bp.mu.Lock()
		bp.results[i] = run
		bp.mu.Unlock()
	})

	bp.logger.Info("batch processing complete",
		"total_datasets", len(datasets),
		"elapsed", time.Since(startTime),
	)

	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.results, err
}

// ProcessBatchWithCallback runs the pipeline for every dataset and calls
// callback as each run finishes. The callback is called from the worker
// goroutine, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	datasets []model.Dataset,
	callback func(run *model.Run, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_datasets", len(datasets),
		"concurrency", bp.concurrency,
	)
	return bp.run(ctx, datasets, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, datasets []model.Dataset, done func(*model.Run, int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, ds := range datasets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("generating report",
				"dataset", ds.Label,
				"index", i+1,
				"total", len(datasets),
			)

			run := model.NewRun(ds)
			if err := bp.pipelineFactory().Execute(ctx, run); err != nil {
				bp.logger.Warn("report generation failed",
					"dataset", ds.Label,
					"error", err,
				)
			} else {
				bp.logger.Info("report generated", "dataset", ds.Label)
			}

			done(run, i)
			// The failure lives in the run. Returning nil keeps the
			// other datasets going.
			return nil
		})
	}

	return g.Wait()
}
