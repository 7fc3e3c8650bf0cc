// Package ingest runs one pass of the pipeline: fetch every configured
// source, then reconcile their records against the store in order.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Movie-Song/sns-contents-tracker/internal/config"
	"github.com/Movie-Song/sns-contents-tracker/internal/content"
	"github.com/Movie-Song/sns-contents-tracker/internal/feed"
	"github.com/Movie-Song/sns-contents-tracker/internal/logger"
	"github.com/Movie-Song/sns-contents-tracker/internal/reconcile"
)

// SourceFactory builds the adapter for one source config.
type SourceFactory func(config.Source) (feed.Source, error)

// Reconciler is the per-record decision step.
type Reconciler interface {
	Reconcile(ctx context.Context, rec content.Record) reconcile.Outcome
}

type Runner struct {
	factory     SourceFactory
	reconciler  Reconciler
	log         logger.Logger
	limit       int
	concurrency int
}

type Options struct {
	Limit       int
	Concurrency int
}

func NewRunner(factory SourceFactory, r Reconciler, log logger.Logger, opts Options) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Runner{
		factory:     factory,
		reconciler:  r,
		log:         log,
		limit:       opts.Limit,
		concurrency: opts.Concurrency,
	}
}

// fetched is the fetch-stage result for one source.
type fetched struct {
	name  string
	batch feed.Batch
	err   error
}

// Run processes sources and returns the run summary. A failing source is
// recorded and never stops the others.
func (r *Runner) Run(ctx context.Context, sources []config.Source) content.Summary {
	summary := content.Summary{RunID: uuid.NewString()}
	log := r.log.With(logger.String("run_id", summary.RunID))
	start := time.Now()

	log.Info("run started", logger.Int("sources", len(sources)), logger.Int("limit", r.limit))

	results := r.fetchAll(ctx, log, sources)

	for _, res := range results {
		summary.Add(r.reconcileSource(ctx, log, res))
	}

	log.Info("run finished",
		logger.Int("processed", summary.Processed()),
		logger.Int("created", summary.Created),
		logger.Int("skipped", summary.Skipped),
		logger.Int("degraded", summary.Degraded),
		logger.Int("errored", summary.Errored),
		logger.Duration("elapsed", time.Since(start)),
	)
	return summary
}

// fetchAll fills one slot per source so that reconciliation keeps the
// configured order regardless of which fetch finishes first.
func (r *Runner) fetchAll(ctx context.Context, log logger.Logger, sources []config.Source) []fetched {
	results := make([]fetched, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, cfg := range sources {
		i, cfg := i, cfg
		g.Go(func() error {
			results[i] = r.fetchOne(gctx, log, cfg)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runner) fetchOne(ctx context.Context, log logger.Logger, cfg config.Source) fetched {
	src, err := r.factory(cfg)
	if err != nil {
		name := cfg.Name
		if name == "" {
			name = sourceLabel(cfg)
		}
		log.Error("source config rejected", logger.String("source", name), logger.Error(err))
		return fetched{name: name, err: err}
	}

	batch, err := src.Fetch(ctx, r.limit)
	if err != nil {
		log.Error("source fetch failed", logger.String("source", src.Name()), logger.Error(err))
		return fetched{name: src.Name(), batch: batch, err: err}
	}
	log.Debug("source fetched",
		logger.String("source", src.Name()),
		logger.String("endpoint", batch.Endpoint),
		logger.Int("records", len(batch.Records)),
	)
	return fetched{name: src.Name(), batch: batch}
}

func (r *Runner) reconcileSource(ctx context.Context, log logger.Logger, res fetched) content.SourceSummary {
	sum := content.SourceSummary{Name: res.name, Endpoint: res.batch.Endpoint}
	if res.err != nil {
		sum.Failed = true
		sum.Reason = res.err.Error()
		sum.Errored = 1
		return sum
	}

	sum.Fetched = len(res.batch.Records)
	for _, rec := range res.batch.Records {
		out := r.reconciler.Reconcile(ctx, rec)
		switch {
		case out.Degraded():
			sum.Degraded++
		case out.Decision == reconcile.SkipDuplicate:
			sum.Skipped++
		case out.Err != nil:
			sum.Errored++
		default:
			sum.Created++
		}
	}

	log.Info("source reconciled",
		logger.String("source", sum.Name),
		logger.Int("fetched", sum.Fetched),
		logger.Int("created", sum.Created),
		logger.Int("skipped", sum.Skipped),
		logger.Int("degraded", sum.Degraded),
		logger.Int("errored", sum.Errored),
	)
	return sum
}

func sourceLabel(cfg config.Source) string {
	switch {
	case cfg.Handle != "":
		return "@" + strings.TrimPrefix(cfg.Handle, "@")
	case cfg.URL != "":
		return cfg.URL
	default:
		return cfg.Kind
	}
}
