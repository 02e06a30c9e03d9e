package models

import (
	"cmp"
	"slices"
)

// ItemFilter selects items for listing and aggregation. Zero fields match
// everything. Archived items are excluded unless a status filter asks for
// them or IncludeArchived is set.
type ItemFilter struct {
	Kind            Kind
	Category        string
	Status          Status
	OwnerID         string
	RiskLevel       RiskLevel
	IncludeArchived bool
}

// Matches applies the filter to an evaluated item.
func (f ItemFilter) Matches(i *Item) bool {
	if f.Kind != "" && i.Kind != f.Kind {
		return false
	}
	if f.Category != "" && i.Category != NormalizeCategory(f.Category) {
		return false
	}
	if f.Status != "" && i.Status != f.Status {
		return false
	}
	if f.Status == "" && !f.IncludeArchived && i.IsArchived() {
		return false
	}
	if f.OwnerID != "" && i.Owner.ID != f.OwnerID {
		return false
	}
	if f.RiskLevel != "" && i.RiskLevel != f.RiskLevel {
		return false
	}
	return true
}

// SortItems orders items by risk level descending, then expiry ascending with
// non-expiring items last, then id for stability.
func SortItems(items []*Item) {
	slices.SortStableFunc(items, func(a, b *Item) int {
		if c := cmp.Compare(b.RiskLevel.Rank(), a.RiskLevel.Rank()); c != 0 {
			return c
		}
		switch {
		case a.ExpiresAt == nil && b.ExpiresAt != nil:
			return 1
		case a.ExpiresAt != nil && b.ExpiresAt == nil:
			return -1
		case a.ExpiresAt != nil && b.ExpiresAt != nil:
			if c := a.ExpiresAt.Compare(*b.ExpiresAt); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}

// ItemQuery is the part of a filter a store can apply without evaluating
// items. Status and risk are derived and filtered after evaluation.
type ItemQuery struct {
	Kind            Kind
	Category        string
	OwnerID         string
	IncludeArchived bool
}

// Query extracts the store-side part of the filter.
func (f ItemFilter) Query() ItemQuery {
	return ItemQuery{
		Kind:            f.Kind,
		Category:        NormalizeCategory(f.Category),
		OwnerID:         f.OwnerID,
		IncludeArchived: f.IncludeArchived || f.Status == StatusArchived,
	}
}

func (q ItemQuery) Matches(i *Item) bool {
	if q.Kind != "" && i.Kind != q.Kind {
		return false
	}
	if q.Category != "" && i.Category != q.Category {
		return false
	}
	if q.OwnerID != "" && i.Owner.ID != q.OwnerID {
		return false
	}
	if !q.IncludeArchived && i.IsArchived() {
		return false
	}
	return true
}
