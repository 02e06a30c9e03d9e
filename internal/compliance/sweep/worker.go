// Package sweep periodically persists time-driven status changes, such as an
// item entering its warning window, so stored state and emitted events keep
// up with elapsed time between writes.
package sweep

import (
	"context"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"complytrack/internal/compliance/metrics"
	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
	"complytrack/pkg/requestcontext"
)

const (
	defaultInterval    = 15 * time.Minute
	defaultConcurrency = 4
)

// Refresher is the slice of the compliance service the sweep needs.
type Refresher interface {
	ListItems(ctx context.Context, filter models.ItemFilter) iter.Seq2[*models.Item, error]
	RefreshItem(ctx context.Context, itemID id.ItemID) (*models.Item, bool, error)
}

// Result summarizes one pass.
type Result struct {
	Checked int
	Changed int
	Failed  int
}

type Worker struct {
	svc         Refresher
	interval    time.Duration
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithConcurrency bounds how many items are refreshed at once.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func New(svc Refresher, opts ...Option) *Worker {
	w := &Worker{
		svc:         svc,
		interval:    defaultInterval,
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run sweeps once per interval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.ErrorContext(ctx, "compliance sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SweepOnce refreshes every active item. Each refresh takes the item lock and
// writes an audit entry only when status or risk changed. Per-item failures
// are logged and counted; listing failures abort the pass.
func (w *Worker) SweepOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	ctx = requestcontext.WithActor(ctx, requestcontext.SystemActor)

	var ids []id.ItemID
	for item, err := range w.svc.ListItems(ctx, models.ItemFilter{}) {
		if err != nil {
			return Result{}, err
		}
		ids = append(ids, item.ID)
	}

	var changed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, itemID := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, ok, err := w.svc.RefreshItem(gctx, itemID)
			if err != nil {
				failed.Add(1)
				w.logger.WarnContext(gctx, "failed to refresh compliance item",
					"item_id", itemID,
					"error", err,
				)
				return nil
			}
			if ok {
				changed.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()

	res := Result{Checked: len(ids), Changed: int(changed.Load()), Failed: int(failed.Load())}
	w.metrics.ObserveSweep(time.Since(start), res.Changed)
	w.logger.InfoContext(ctx, "compliance sweep finished",
		"checked", res.Checked,
		"changed", res.Changed,
		"failed", res.Failed,
		"duration", time.Since(start),
	)
	return res, err
}
