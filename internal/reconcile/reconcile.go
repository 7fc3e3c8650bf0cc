// Package reconcile decides, per record, whether the content store already
// holds it and creates it when it does not.
package reconcile

import (
	"context"

	"github.com/Movie-Song/sns-contents-tracker/internal/content"
	"github.com/Movie-Song/sns-contents-tracker/internal/logger"
	"github.com/Movie-Song/sns-contents-tracker/internal/normalize"
	"github.com/Movie-Song/sns-contents-tracker/internal/store"
)

type Decision int

const (
	Create Decision = iota
	SkipDuplicate
)

func (d Decision) String() string {
	if d == SkipDuplicate {
		return "skip"
	}
	return "create"
}

type Reason string

const (
	ReasonNew         Reason = "new"
	ReasonURLMatch    Reason = "url_match"
	ReasonTitleMatch  Reason = "title_match"
	ReasonCheckFailed Reason = "check_failed"
)

// Outcome is the verdict for one record. Err is set when the store failed,
// either during the duplicate check or during the write.
type Outcome struct {
	Decision Decision
	Reason   Reason
	Err      error
}

// Degraded reports a record skipped only because the duplicate check
// could not run.
func (o Outcome) Degraded() bool {
	return o.Reason == ReasonCheckFailed
}

// Written reports a record that now exists in the store.
func (o Outcome) Written() bool {
	return o.Decision == Create && o.Err == nil
}

type Options struct {
	// DryRun decides without writing.
	DryRun bool
}

type Reconciler struct {
	store store.Store
	log   logger.Logger
	opts  Options
}

func New(s store.Store, log logger.Logger, opts Options) *Reconciler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reconciler{store: s, log: log, opts: opts}
}

// Reconcile runs the duplicate check for rec and writes it if new. A failed
// check never leads to a write.
func (r *Reconciler) Reconcile(ctx context.Context, rec content.Record) Outcome {
	log := r.log.With(logger.String("url", rec.URL), logger.String("platform", rec.Platform))

	dup, reason, err := r.isDuplicate(ctx, rec)
	if err != nil {
		log.Warn("duplicate check failed, skipping record", logger.Error(err))
		return Outcome{Decision: SkipDuplicate, Reason: ReasonCheckFailed, Err: err}
	}
	if dup {
		log.Debug("duplicate skipped", logger.String("reason", string(reason)))
		return Outcome{Decision: SkipDuplicate, Reason: reason}
	}

	if r.opts.DryRun {
		log.Info("would create record", logger.String("title", rec.Title))
		return Outcome{Decision: Create, Reason: ReasonNew}
	}

	stored, err := r.store.Create(ctx, rec)
	if err != nil {
		log.Error("create failed", logger.Error(err))
		return Outcome{Decision: Create, Reason: ReasonNew, Err: err}
	}
	log.Info("record created", logger.String("id", stored.ID), logger.String("title", rec.Title))
	return Outcome{Decision: Create, Reason: ReasonNew}
}

func (r *Reconciler) isDuplicate(ctx context.Context, rec content.Record) (bool, Reason, error) {
	if key := normalize.Canonicalize(rec.URL); key != "" {
		all, err := r.store.Query(ctx, store.Query{})
		if err != nil {
			return false, "", err
		}
		for _, s := range all {
			if normalize.Canonicalize(s.URL) == key {
				return true, ReasonURLMatch, nil
			}
		}
	}

	date := rec.Date()
	sameDay, err := r.store.Query(ctx, store.Query{Filter: store.Filter{Date: date}})
	if err != nil {
		return false, "", err
	}
	for _, s := range sameDay {
		if s.Date() == date && normalize.SameTitle(s.Title, rec.Title) {
			return true, ReasonTitleMatch, nil
		}
	}
	return false, ReasonNew, nil
}
