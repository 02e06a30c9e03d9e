package service

import (
	"context"
	"iter"

	"go.opentelemetry.io/otel/attribute"

	"complytrack/internal/compliance/aggregate"
	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/models"
	dErrors "complytrack/pkg/domain-errors"
)

// Aggregate builds a compliance report over the items matching filter, with
// deadlines due within withinDays.
func (s *Service) Aggregate(ctx context.Context, filter models.ItemFilter, withinDays int) (_ *aggregate.Report, err error) {
	ctx, finish := s.begin(ctx, "aggregate", attribute.Int("within_days", withinDays))
	defer func() { finish(err) }()

	if withinDays < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "within_days must not be negative").WithField("within_days")
	}
	items, err := s.listEvaluated(ctx, filter)
	if err != nil {
		return nil, err
	}
	return aggregate.Build(items, s.now(ctx), withinDays), nil
}

// UpcomingDeadlines lists review, expiry and gap deadlines of active items
// falling within the next withinDays, soonest first.
func (s *Service) UpcomingDeadlines(ctx context.Context, withinDays int) (_ []aggregate.Deadline, err error) {
	ctx, finish := s.begin(ctx, "upcoming_deadlines", attribute.Int("within_days", withinDays))
	defer func() { finish(err) }()

	if withinDays < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "within_days must not be negative").WithField("within_days")
	}
	items, err := s.listEvaluated(ctx, models.ItemFilter{})
	if err != nil {
		return nil, err
	}
	return aggregate.UpcomingDeadlines(items, s.now(ctx), withinDays), nil
}

// AuditTrail returns a lazy sequence of audit entries, newest first.
func (s *Service) AuditTrail(ctx context.Context, filter audit.Filter) iter.Seq2[audit.Entry, error] {
	return s.auditLog.Query(ctx, filter)
}
