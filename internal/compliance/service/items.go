package service

import (
	"context"
	"iter"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
	platformstrings "complytrack/pkg/platform/strings"
)

// CreateItem validates the request, derives initial status and risk, and
// stores the item with its item_created entry.
func (s *Service) CreateItem(ctx context.Context, req models.CreateItemRequest) (_ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "create_item", attribute.String("kind", string(req.Kind)))
	defer func() { finish(err) }()

	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now(ctx)
	item, err := models.NewItem(id.NewItemID(), req, now)
	if err != nil {
		return nil, err
	}
	s.derive(item, now)

	err = s.store.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.CreateItem(txCtx, item); err != nil {
			return wrapStoreErr(err, item.ID.String(), "create compliance item")
		}
		return s.appendAudit(txCtx, actor, itemChange(audit.ActionItemCreated, item.ID), item.ID, nil, item, now)
	})
	if err != nil {
		return nil, wrapStoreErr(err, item.ID.String(), "commit compliance item")
	}
	s.logger.InfoContext(ctx, "compliance item created",
		"item_id", item.ID,
		"kind", item.Kind,
		"status", item.Status,
		"risk_level", item.RiskLevel,
	)
	s.publish(ctx, nil, item, now)
	return item.Clone(), nil
}

// GetItem returns the item with status and risk evaluated at the current time.
func (s *Service) GetItem(ctx context.Context, itemID id.ItemID) (_ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "get_item", attribute.String("item_id", itemID.String()))
	defer func() { finish(err) }()

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, wrapStoreErr(err, itemID.String(), "load compliance item")
	}
	return s.engine.Snapshot(item, s.now(ctx)), nil
}

// ListItems returns a lazy, restartable sequence of evaluated items matching
// the filter, highest risk first. Archived items are excluded unless asked for.
func (s *Service) ListItems(ctx context.Context, filter models.ItemFilter) iter.Seq2[*models.Item, error] {
	return func(yield func(*models.Item, error) bool) {
		items, err := s.listEvaluated(ctx, filter)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (s *Service) listEvaluated(ctx context.Context, filter models.ItemFilter) (_ []*models.Item, err error) {
	ctx, finish := s.begin(ctx, "list_items")
	defer func() { finish(err) }()

	stored, err := s.store.ListItems(ctx, filter.Query())
	if err != nil {
		return nil, wrapStoreErr(err, "", "list compliance items")
	}
	now := s.now(ctx)
	out := make([]*models.Item, 0, len(stored))
	for _, item := range stored {
		s.engine.Apply(item, now)
		if filter.Matches(item) {
			out = append(out, item)
		}
	}
	models.SortItems(out)
	return out, nil
}

// UpdateScore records a new compliance score and re-derives status. An item
// that falls to non-compliant without an unresolved gap gets a high-severity
// gap in the same change.
func (s *Service) UpdateScore(ctx context.Context, itemID id.ItemID, score int) (_ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "update_score", attribute.String("item_id", itemID.String()))
	defer func() { finish(err) }()

	return s.mutate(ctx, itemID, func(item *models.Item, _ time.Time) (change, error) {
		if item.IsArchived() {
			return change{}, archivedErr(item)
		}
		if !item.Kind.ScoreDriven() {
			return change{}, dErrors.New(dErrors.CodeValidation, "credential checks are not scored").WithField("compliance_score")
		}
		if err := item.SetScore(score); err != nil {
			return change{}, err
		}
		return itemChange(audit.ActionScoreUpdated, item.ID), nil
	})
}

// SetManualStatus moves an item into or out of pending or archived. Moving to
// a derived status resumes derivation; the resulting status is computed, not
// taken from the request.
func (s *Service) SetManualStatus(ctx context.Context, itemID id.ItemID, target models.Status) (_ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "set_manual_status",
		attribute.String("item_id", itemID.String()),
		attribute.String("target", string(target)),
	)
	defer func() { finish(err) }()

	return s.mutate(ctx, itemID, func(item *models.Item, now time.Time) (change, error) {
		if err := item.CanSetManualStatus(target); err != nil {
			return change{}, err
		}
		item.ApplyManualStatus(target, now)
		return itemChange(audit.ActionStatusSet, item.ID), nil
	})
}

// AttachEvidence adds evidence references, ignoring ones already attached.
// When nothing new is added the item is returned unchanged with no entry.
func (s *Service) AttachEvidence(ctx context.Context, itemID id.ItemID, refs []string) (_ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "attach_evidence", attribute.String("item_id", itemID.String()))
	defer func() { finish(err) }()

	refs = platformstrings.NormalizeRefs(refs)
	if len(refs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one evidence reference is required").WithField("evidence_refs")
	}
	return s.mutate(ctx, itemID, func(item *models.Item, _ time.Time) (change, error) {
		if item.IsArchived() {
			return change{}, archivedErr(item)
		}
		merged, added := platformstrings.MergeRefs(item.EvidenceRefs, refs)
		if added == 0 {
			return change{skip: true}, nil
		}
		item.EvidenceRefs = merged
		return itemChange(audit.ActionEvidenceAttached, item.ID), nil
	})
}

// RecordReview marks the item reviewed at reviewedAt, or now when nil, and
// schedules the next review from the cadence.
func (s *Service) RecordReview(ctx context.Context, itemID id.ItemID, reviewedAt *time.Time) (_ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "record_review", attribute.String("item_id", itemID.String()))
	defer func() { finish(err) }()

	return s.mutate(ctx, itemID, func(item *models.Item, now time.Time) (change, error) {
		if item.IsArchived() {
			return change{}, archivedErr(item)
		}
		at := now
		if reviewedAt != nil {
			at = reviewedAt.UTC()
		}
		if at.After(now) {
			return change{}, dErrors.New(dErrors.CodeValidation, "review cannot be recorded in the future").WithField("reviewed_at")
		}
		item.LastReviewedAt = &at
		item.NextReviewAt = nil
		if item.ReviewCadenceDays > 0 {
			next := at.AddDate(0, 0, item.ReviewCadenceDays)
			item.NextReviewAt = &next
		}
		return itemChange(audit.ActionItemReviewed, item.ID), nil
	})
}

// Renew replaces the issue and expiry dates, typically after a credential
// has been re-checked.
func (s *Service) Renew(ctx context.Context, itemID id.ItemID, req models.RenewRequest) (_ *models.Item, err error) {
	ctx, finish := s.begin(ctx, "renew", attribute.String("item_id", itemID.String()))
	defer func() { finish(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, itemID, func(item *models.Item, _ time.Time) (change, error) {
		if item.IsArchived() {
			return change{}, archivedErr(item)
		}
		if req.IssuedAt != nil {
			issued := req.IssuedAt.UTC()
			item.IssuedAt = &issued
		}
		expires := req.ExpiresAt.UTC()
		item.ExpiresAt = &expires
		return itemChange(audit.ActionItemRenewed, item.ID), nil
	})
}

// RefreshItem persists the status and risk derived at the current time. It
// writes and audits only when they changed.
func (s *Service) RefreshItem(ctx context.Context, itemID id.ItemID) (_ *models.Item, changed bool, err error) {
	ctx, finish := s.begin(ctx, "refresh_item", attribute.String("item_id", itemID.String()))
	defer func() { finish(err) }()

	var stale bool
	item, err := s.mutateStored(ctx, itemID, func(stored *models.Item, now time.Time) (change, error) {
		ev := s.engine.Evaluate(stored, now)
		if !ev.Changed {
			return change{skip: true}, nil
		}
		stale = true
		return itemChange(audit.ActionStatusRederived, stored.ID), nil
	})
	if err != nil {
		return nil, false, err
	}
	return item, stale, nil
}

func archivedErr(item *models.Item) error {
	return dErrors.New(dErrors.CodeInvalidTransition, "archived items cannot be changed").WithEntity(item.ID.String())
}
