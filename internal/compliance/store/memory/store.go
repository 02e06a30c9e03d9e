// Package memory is the in-process item and audit store. Writes inside
// RunInTx are staged and become visible together on commit; readers always
// see committed copies.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
	"complytrack/pkg/platform/sentinel"
)

type Store struct {
	mu      sync.RWMutex
	items   map[id.ItemID]*models.Item
	gapItem map[id.GapID]id.ItemID
	entries []audit.Entry
	seq     atomic.Int64
}

func New() *Store {
	return &Store{
		items:   make(map[id.ItemID]*models.Item),
		gapItem: make(map[id.GapID]id.ItemID),
	}
}

type txKey struct{}

type staged struct {
	items   map[id.ItemID]*models.Item
	created map[id.ItemID]bool
	order   []id.ItemID
	entries []audit.Entry
}

func stagedFrom(ctx context.Context) (*staged, bool) {
	st, ok := ctx.Value(txKey{}).(*staged)
	return st, ok
}

// RunInTx runs fn with a staging area in ctx. Nested calls join the outer
// transaction. Nothing is visible to readers unless fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := stagedFrom(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	st := &staged{
		items:   make(map[id.ItemID]*models.Item),
		created: make(map[id.ItemID]bool),
	}
	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return s.commit(st)
}

func (s *Store) commit(st *staged) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, itemID := range st.order {
		item := st.items[itemID]
		current, exists := s.items[itemID]
		if st.created[itemID] && exists {
			return sentinel.ErrVersionConflict
		}
		if !st.created[itemID] && (!exists || current.Version >= item.Version) {
			return sentinel.ErrVersionConflict
		}
	}
	for _, itemID := range st.order {
		s.putLocked(st.items[itemID])
	}
	s.entries = append(s.entries, st.entries...)
	return nil
}

func (s *Store) putLocked(item *models.Item) {
	s.items[item.ID] = item
	for _, g := range item.Gaps {
		s.gapItem[g.ID] = item.ID
	}
}

// GetItem returns a copy of the item, preferring a version staged in the
// current transaction.
func (s *Store) GetItem(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	if st, ok := stagedFrom(ctx); ok {
		if item, ok := st.items[itemID]; ok {
			return item.Clone(), nil
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return item.Clone(), nil
}

// FindItemByGap returns a copy of the item owning the gap.
func (s *Store) FindItemByGap(ctx context.Context, gapID id.GapID) (*models.Item, error) {
	if st, ok := stagedFrom(ctx); ok {
		for _, item := range st.items {
			if _, found := item.FindGap(gapID); found {
				return item.Clone(), nil
			}
		}
	}
	s.mu.RLock()
	itemID, ok := s.gapItem[gapID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.GetItem(ctx, itemID)
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	if st, ok := stagedFrom(ctx); ok {
		if _, exists := st.items[item.ID]; exists {
			return sentinel.ErrVersionConflict
		}
		s.stage(st, item, true)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return sentinel.ErrVersionConflict
	}
	s.putLocked(item.Clone())
	return nil
}

// UpdateItem replaces an item. The caller must have bumped Version.
func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	if st, ok := stagedFrom(ctx); ok {
		if _, err := s.GetItem(ctx, item.ID); err != nil {
			return err
		}
		s.stage(st, item, st.created[item.ID])
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[item.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version >= item.Version {
		return sentinel.ErrVersionConflict
	}
	s.putLocked(item.Clone())
	return nil
}

func (s *Store) stage(st *staged, item *models.Item, created bool) {
	if _, seen := st.items[item.ID]; !seen {
		st.order = append(st.order, item.ID)
	}
	st.items[item.ID] = item.Clone()
	st.created[item.ID] = created
}

// ListItems returns committed copies matching the query, in no particular order.
func (s *Store) ListItems(_ context.Context, q models.ItemQuery) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Item, 0, len(s.items))
	for _, item := range s.items {
		if q.Matches(item) {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

// AppendEntry assigns the next sequence number. Inside a transaction the
// entry becomes visible on commit.
func (s *Store) AppendEntry(ctx context.Context, e *audit.Entry) error {
	e.Seq = s.seq.Add(1)
	if st, ok := stagedFrom(ctx); ok {
		st.entries = append(st.entries, *e)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return nil
}

// ListEntries returns committed entries newest first.
func (s *Store) ListEntries(_ context.Context, f audit.Filter) ([]audit.Entry, error) {
	s.mu.RLock()
	out := make([]audit.Entry, 0)
	for _, e := range s.entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()
	audit.SortNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// EntityExists resolves items and gaps, including ones staged in ctx.
func (s *Store) EntityExists(ctx context.Context, t audit.EntityType, entityID string) (bool, error) {
	switch t {
	case audit.EntityItem:
		itemID, err := id.ParseItemID(entityID)
		if err != nil {
			return false, nil
		}
		_, err = s.GetItem(ctx, itemID)
		return err == nil, nil
	case audit.EntityGap:
		gapID, err := id.ParseGapID(entityID)
		if err != nil {
			return false, nil
		}
		_, err = s.FindItemByGap(ctx, gapID)
		return err == nil, nil
	default:
		return false, nil
	}
}
