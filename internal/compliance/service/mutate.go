package service

import (
	"context"
	"fmt"
	"time"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/gaps"
	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
	"complytrack/pkg/requestcontext"
)

// change describes what a mutation did, for the audit entry.
type change struct {
	action     audit.Action
	entityType audit.EntityType
	entityID   string
	// skip marks a call that changed nothing; no write or entry is made.
	skip bool
}

func itemChange(action audit.Action, itemID id.ItemID) change {
	return change{action: action, entityType: audit.EntityItem, entityID: itemID.String()}
}

func gapChange(action audit.Action, gapID id.GapID) change {
	return change{action: action, entityType: audit.EntityGap, entityID: gapID.String()}
}

// mutateFunc edits the working copy of an item. It runs inside the
// transaction, after the item has been loaded and evaluated.
type mutateFunc func(item *models.Item, now time.Time) (change, error)

// mutate is the single write path for existing items: lock, load, edit,
// re-derive, persist, audit, commit, then publish. Any failure before commit
// leaves no trace. fn sees the item as evaluated at now.
func (s *Service) mutate(ctx context.Context, itemID id.ItemID, fn mutateFunc) (*models.Item, error) {
	return s.write(ctx, itemID, true, fn)
}

// mutateStored is mutate with fn seeing the item exactly as stored, so it can
// compare persisted status against a fresh derivation.
func (s *Service) mutateStored(ctx context.Context, itemID id.ItemID, fn mutateFunc) (*models.Item, error) {
	return s.write(ctx, itemID, false, fn)
}

func (s *Service) write(ctx context.Context, itemID id.ItemID, evaluated bool, fn mutateFunc) (*models.Item, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now(ctx)
	var before, after *models.Item
	var skipped bool
	err = s.store.RunInTx(ctx, func(txCtx context.Context) error {
		stored, err := s.store.GetItem(txCtx, itemID)
		if err != nil {
			return wrapStoreErr(err, itemID.String(), "load compliance item")
		}
		before = stored
		if evaluated {
			before = s.engine.Snapshot(stored, now)
		}
		working := before.Clone()

		ch, err := fn(working, now)
		if err != nil {
			return err
		}
		if ch.skip {
			after = s.engine.Snapshot(before, now)
			skipped = true
			return nil
		}
		s.derive(working, now)
		working.Touch(now)
		if err := s.store.UpdateItem(txCtx, working); err != nil {
			return wrapStoreErr(err, itemID.String(), "update compliance item")
		}
		if err := s.appendAudit(txCtx, actor, ch, working.ID, before, working, now); err != nil {
			return err
		}
		after = working
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, itemID.String(), "commit compliance change")
	}
	if !skipped {
		s.publish(ctx, before, after, now)
	}
	return after.Clone(), nil
}

// derive applies the risk engine. A persisted non-compliant item always has
// an unresolved gap: when none is left, a high-severity gap naming the cause
// is opened in the same change.
func (s *Service) derive(item *models.Item, now time.Time) {
	s.engine.Apply(item, now)
	if item.Status != models.StatusNonCompliant || item.HasUnresolvedGap() {
		return
	}
	req := models.OpenGapRequest{
		Description: s.shortfall(item, now),
		Severity:    models.SeverityHigh,
	}
	if _, err := gaps.Open(item, id.NewGapID(), req, now); err != nil {
		return
	}
	s.metrics.IncrementGapOpened(string(models.SeverityHigh))
	s.engine.Apply(item, now)
}

// shortfall describes why an item without blocking gaps is non-compliant.
func (s *Service) shortfall(item *models.Item, now time.Time) string {
	if item.ExpiresAt != nil && now.After(*item.ExpiresAt) {
		noun := "Requirement"
		if item.Kind == models.KindCredentialCheck {
			noun = "Credential"
		}
		return fmt.Sprintf("%s expired on %s", noun, item.ExpiresAt.Format(time.DateOnly))
	}
	if item.Score != nil {
		return fmt.Sprintf("Compliance score %d is below the at-risk threshold of %d",
			*item.Score, s.engine.Policy().AtRiskScore)
	}
	return "Item is non-compliant"
}

func (s *Service) appendAudit(ctx context.Context, actor requestcontext.ActorRef, ch change, itemID id.ItemID, before, after *models.Item, now time.Time) error {
	entry := audit.Entry{
		Timestamp:  now,
		Actor:      actor,
		EntityType: ch.entityType,
		EntityID:   ch.entityID,
		ItemID:     itemID,
		Action:     ch.action,
		RequestID:  requestcontext.RequestID(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
	}
	if before != nil {
		b, err := audit.Snapshot(before)
		if err != nil {
			return err
		}
		entry.Before = b
	}
	a, err := audit.Snapshot(after)
	if err != nil {
		return err
	}
	entry.After = a
	_, err = s.auditLog.Append(ctx, entry)
	return err
}
