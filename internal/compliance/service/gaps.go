package service

import (
	"context"
	"iter"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/gaps"
	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
)

// OpenGap attaches a remediation gap to an item and re-derives the item.
// It returns the new gap and the updated parent.
func (s *Service) OpenGap(ctx context.Context, itemID id.ItemID, req models.OpenGapRequest) (_ *models.Gap, _ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "open_gap", attribute.String("item_id", itemID.String()))
	defer func() { finish(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	gapID := id.NewGapID()
	item, err := s.mutate(ctx, itemID, func(item *models.Item, now time.Time) (change, error) {
		if _, err := gaps.Open(item, gapID, req, now); err != nil {
			return change{}, err
		}
		return gapChange(audit.ActionGapOpened, gapID), nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.metrics.IncrementGapOpened(string(req.Severity))
	return gapOf(item, gapID)
}

// StartGap moves an open gap to in-progress.
func (s *Service) StartGap(ctx context.Context, gapID id.GapID) (_ *models.Gap, _ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "start_gap", attribute.String("gap_id", gapID.String()))
	defer func() { finish(err) }()

	return s.mutateGap(ctx, gapID, audit.ActionGapStarted, func(item *models.Item, now time.Time) error {
		_, err := gaps.Start(item, gapID, now)
		return err
	})
}

// ResolveGap closes a gap with resolution notes and re-derives the parent,
// which may return it to compliant.
func (s *Service) ResolveGap(ctx context.Context, gapID id.GapID, notes string) (_ *models.Gap, _ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "resolve_gap", attribute.String("gap_id", gapID.String()))
	defer func() { finish(err) }()

	return s.mutateGap(ctx, gapID, audit.ActionGapResolved, func(item *models.Item, now time.Time) error {
		_, err := gaps.Resolve(item, gapID, notes, now)
		return err
	})
}

func (s *Service) mutateGap(ctx context.Context, gapID id.GapID, action audit.Action, fn func(*models.Item, time.Time) error) (*models.Gap, *models.Item, error) {
	owner, err := s.store.FindItemByGap(ctx, gapID)
	if err != nil {
		return nil, nil, gapNotFound(err, gapID)
	}
	item, err := s.mutate(ctx, owner.ID, func(item *models.Item, now time.Time) (change, error) {
		if item.IsArchived() {
			return change{}, archivedErr(item)
		}
		if err := fn(item, now); err != nil {
			return change{}, err
		}
		return gapChange(action, gapID), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return gapOf(item, gapID)
}

// ListGaps returns a lazy, restartable sequence of an item's gaps matching
// the filter, earliest due first.
func (s *Service) ListGaps(ctx context.Context, itemID id.ItemID, filter gaps.Filter) iter.Seq2[models.Gap, error] {
	return func(yield func(models.Gap, error) bool) {
		item, err := s.store.GetItem(ctx, itemID)
		if err != nil {
			yield(models.Gap{}, wrapStoreErr(err, itemID.String(), "load compliance item"))
			return
		}
		for g := range gaps.Seq(item.Gaps, filter) {
			if !yield(g, nil) {
				return
			}
		}
	}
}

// GetGap returns a gap together with its evaluated parent.
func (s *Service) GetGap(ctx context.Context, gapID id.GapID) (_ *models.Gap, _ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "get_gap", attribute.String("gap_id", gapID.String()))
	defer func() { finish(err) }()

	owner, err := s.store.FindItemByGap(ctx, gapID)
	if err != nil {
		return nil, nil, gapNotFound(err, gapID)
	}
	return gapOf(s.engine.Snapshot(owner, s.now(ctx)), gapID)
}

func gapOf(item *models.Item, gapID id.GapID) (*models.Gap, *models.Item, error) {
	g, ok := item.FindGap(gapID)
	if !ok {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "gap not found").WithEntity(gapID.String())
	}
	gap := *g
	return &gap, item, nil
}

func gapNotFound(err error, gapID id.GapID) error {
	if dErrors.CodeOf(wrapStoreErr(err, gapID.String(), "find gap")) == dErrors.CodeNotFound {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "gap not found").WithEntity(gapID.String())
	}
	return wrapStoreErr(err, gapID.String(), "find gap")
}
