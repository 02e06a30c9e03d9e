// Package service is the single entry point into the compliance core. Every
// mutation runs under the item's lock inside one transaction that writes the
// item and exactly one audit entry; events are published after commit.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/events"
	"complytrack/internal/compliance/lock"
	"complytrack/internal/compliance/metrics"
	"complytrack/internal/compliance/models"
	"complytrack/internal/compliance/risk"
	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
	"complytrack/pkg/requestcontext"
)

// Store is the persistence adapter. Reads and writes made with a ctx passed
// into RunInTx's callback join that transaction.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetItem(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	FindItemByGap(ctx context.Context, gapID id.GapID) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	ListItems(ctx context.Context, q models.ItemQuery) ([]*models.Item, error)
	audit.Store
}

type Service struct {
	store     Store
	auditLog  *audit.Log
	engine    *risk.Engine
	locker    lock.Locker
	publisher events.Publisher
	clock     func() time.Time
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock injects the time source used when the request carries no time.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func WithPolicy(p risk.Policy) Option {
	return func(s *Service) {
		s.engine = risk.NewEngine(p)
	}
}

func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithAuditLog replaces the default audit log built over the store.
func WithAuditLog(l *audit.Log) Option {
	return func(s *Service) {
		s.auditLog = l
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: risk.NewEngine(risk.DefaultPolicy()),
		locker: lock.NewSharded(),
		clock:  time.Now,
		logger: slog.Default(),
		tracer: otel.Tracer("complytrack/compliance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auditLog == nil {
		auditOpts := []audit.Option{audit.WithLogger(s.logger)}
		if r, ok := store.(audit.EntityResolver); ok {
			auditOpts = append(auditOpts, audit.WithResolver(r))
		}
		s.auditLog = audit.NewLog(store, auditOpts...)
	}
	return s
}

func (s *Service) now(ctx context.Context) time.Time {
	if t, ok := requestcontext.TimeFrom(ctx); ok {
		return t.UTC()
	}
	return s.clock().UTC()
}

// begin starts a span and returns a finisher that records the outcome.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "compliance."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		span.End()
		s.metrics.ObserveOperation(op, result, time.Since(start))
	}
}

func (s *Service) actor(ctx context.Context) (requestcontext.ActorRef, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return actor, dErrors.New(dErrors.CodeUnauthorized, "an acting user is required for changes")
	}
	return actor, nil
}

func (s *Service) lockItem(ctx context.Context, itemID id.ItemID) (lock.Unlock, error) {
	return s.locker.Lock(ctx, itemID.String())
}

// publish delivers events after commit. Failures are logged only; the change
// is already durable.
func (s *Service) publish(ctx context.Context, before, after *models.Item, at time.Time) {
	evts := events.Diff(before, after, at)
	if len(evts) == 0 {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	for i := range evts {
		evts[i].RequestID = requestID
	}
	if before != nil && before.Status != after.Status {
		s.metrics.IncrementTransition(string(before.Status), string(after.Status))
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evts...); err != nil {
		s.logger.WarnContext(ctx, "failed to publish compliance events",
			"item_id", after.ID,
			"count", len(evts),
			"error", err,
		)
	}
}
