package audit

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
	"complytrack/pkg/platform/sentinel"
)

// Store persists entries. AppendEntry assigns Seq and must join the
// transaction carried by ctx.
type Store interface {
	AppendEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, f Filter) ([]Entry, error)
}

// EntityResolver checks that an entity exists at write time, including
// entities created earlier in the same transaction.
type EntityResolver interface {
	EntityExists(ctx context.Context, t EntityType, entityID string) (bool, error)
}

// Log appends validated entries with fail-closed semantics: a write that
// cannot be persisted returns an error and the caller must roll back.
type Log struct {
	store    Store
	resolver EntityResolver
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Log)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Log) {
		l.metrics = m
	}
}

// WithResolver enables the known-entity check on append.
func WithResolver(r EntityResolver) Option {
	return func(l *Log) {
		l.resolver = r
	}
}

func NewLog(store Store, opts ...Option) *Log {
	l := &Log{store: store}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Validate checks the required fields of an entry. Timestamps need not be
// monotonic so entries can be backfilled.
func Validate(e *Entry) error {
	if e.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "audit entry requires a timestamp").WithField("timestamp")
	}
	if !e.EntityType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "audit entry requires a known entity type").WithField("entity_type")
	}
	if e.EntityID == "" {
		return dErrors.New(dErrors.CodeValidation, "audit entry requires an entity id").WithField("entity_id")
	}
	if !e.Action.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "audit entry requires a known action").WithField("action")
	}
	if e.Action.EntityType() != e.EntityType {
		return dErrors.New(dErrors.CodeValidation, "action does not apply to entity type").WithField("action")
	}
	if e.Actor.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "audit entry requires an actor").WithField("actor")
	}
	if len(e.After) == 0 {
		return dErrors.New(dErrors.CodeValidation, "audit entry requires an after snapshot").WithField("after")
	}
	return nil
}

// Append validates and persists an entry, returning it with ID and Seq set.
func (l *Log) Append(ctx context.Context, e Entry) (Entry, error) {
	start := time.Now()
	if err := Validate(&e); err != nil {
		return Entry{}, err
	}
	if l.resolver != nil {
		ok, err := l.resolver.EntityExists(ctx, e.EntityType, e.EntityID)
		if err != nil {
			return Entry{}, l.fail(ctx, e, err)
		}
		if !ok {
			return Entry{}, dErrors.Wrap(sentinel.ErrUnknownEntity, dErrors.CodeNotFound,
				"audit entry references an unknown entity").WithEntity(e.EntityID)
		}
	}
	if e.ID.IsNil() {
		e.ID = id.NewEntryID()
	}
	if err := l.store.AppendEntry(ctx, &e); err != nil {
		return Entry{}, l.fail(ctx, e, err)
	}
	if l.metrics != nil {
		l.metrics.ObservePersistDuration(time.Since(start).Seconds())
		l.metrics.IncEntriesAppended(string(e.Action))
	}
	return e, nil
}

func (l *Log) fail(ctx context.Context, e Entry, err error) error {
	if l.metrics != nil {
		l.metrics.IncPersistFailures()
	}
	if l.logger != nil {
		l.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
			"action", e.Action,
			"entity_type", e.EntityType,
			"entity_id", e.EntityID,
			"error", err,
		)
	}
	return dErrors.Wrap(err, dErrors.CodeAuditWrite, "audit entry could not be persisted").WithEntity(e.EntityID)
}

// Query returns a lazy sequence of matching entries, newest first. The store
// is read each time the sequence is ranged over.
func (l *Log) Query(ctx context.Context, f Filter) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		entries, err := l.store.ListEntries(ctx, f)
		if err != nil {
			if errors.Is(err, sentinel.ErrUnavailable) {
				err = dErrors.Wrap(err, dErrors.CodeUnavailable, "audit store unavailable")
			} else {
				err = dErrors.Wrap(err, dErrors.CodePersistence, "failed to query audit entries")
			}
			yield(Entry{}, err)
			return
		}
		for i, e := range entries {
			if f.Limit > 0 && i >= f.Limit {
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}
