// Package gaps implements the remediation lifecycle of gaps attached to an
// item: opening, starting, resolving and listing.
package gaps

import (
	"cmp"
	"iter"
	"slices"
	"time"

	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
)

// Open attaches a new open gap to the item. Archived items accept no new gaps.
// The caller re-derives the item status afterwards.
func Open(item *models.Item, gapID id.GapID, req models.OpenGapRequest, now time.Time) (*models.Gap, error) {
	if item.IsArchived() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot open a gap on an archived item").WithEntity(item.ID.String())
	}
	gap, err := models.NewGap(gapID, item.ID, req, now)
	if err != nil {
		return nil, err
	}
	item.Gaps = append(item.Gaps, *gap)
	g, _ := item.FindGap(gapID)
	return g, nil
}

// Start moves an open gap to in-progress.
func Start(item *models.Item, gapID id.GapID, now time.Time) (*models.Gap, error) {
	g, err := find(item, gapID)
	if err != nil {
		return nil, err
	}
	if err := g.CanStart(); err != nil {
		return nil, err
	}
	g.ApplyStart(now)
	return g, nil
}

// Resolve closes a gap with notes.
func Resolve(item *models.Item, gapID id.GapID, notes string, now time.Time) (*models.Gap, error) {
	g, err := find(item, gapID)
	if err != nil {
		return nil, err
	}
	if err := g.CanResolve(notes); err != nil {
		return nil, err
	}
	g.ApplyResolve(notes, now)
	return g, nil
}

func find(item *models.Item, gapID id.GapID) (*models.Gap, error) {
	g, ok := item.FindGap(gapID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "gap not found").WithEntity(gapID.String())
	}
	return g, nil
}

// Filter narrows a gap listing. Zero fields match everything.
type Filter struct {
	Status     models.GapStatus
	Severity   models.Severity
	AssigneeID string
	// OverdueAt, when set, keeps only gaps overdue at that instant.
	OverdueAt *time.Time
}

func (f Filter) Matches(g models.Gap) bool {
	if f.Status != "" && g.Status != f.Status {
		return false
	}
	if f.Severity != "" && g.Severity != f.Severity {
		return false
	}
	if f.AssigneeID != "" && g.AssignedTo.ID != f.AssigneeID {
		return false
	}
	if f.OverdueAt != nil && !g.Overdue(*f.OverdueAt) {
		return false
	}
	return true
}

// Sort orders gaps by due date ascending with undated gaps last, then by
// opening time and id.
func Sort(gs []models.Gap) {
	slices.SortStableFunc(gs, func(a, b models.Gap) int {
		switch {
		case a.DueAt == nil && b.DueAt != nil:
			return 1
		case a.DueAt != nil && b.DueAt == nil:
			return -1
		case a.DueAt != nil && b.DueAt != nil:
			if c := a.DueAt.Compare(*b.DueAt); c != 0 {
				return c
			}
		}
		if c := a.OpenedAt.Compare(b.OpenedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}

// Seq yields the matching gaps in listing order. Each range works on its own
// copy of the input, so the sequence can be iterated more than once.
func Seq(gs []models.Gap, f Filter) iter.Seq[models.Gap] {
	return func(yield func(models.Gap) bool) {
		matched := make([]models.Gap, 0, len(gs))
		for _, g := range gs {
			if f.Matches(g) {
				matched = append(matched, g)
			}
		}
		Sort(matched)
		for _, g := range matched {
			if !yield(g) {
				return
			}
		}
	}
}
