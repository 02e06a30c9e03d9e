package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/models"
	"complytrack/internal/compliance/store/memory"
	id "complytrack/pkg/domain"
	"complytrack/pkg/platform/sentinel"
	"complytrack/pkg/requestcontext"
)

type StoreSuite struct {
	suite.Suite
	store *memory.Store
	ctx   context.Context
	now   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = memory.New()
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) newItem(category string) *models.Item {
	return &models.Item{
		ID:        id.NewItemID(),
		Kind:      models.KindStandard,
		Title:     "CQC well-led",
		Owner:     models.OwnerRef{ID: "ops"},
		Category:  category,
		Status:    models.StatusCompliant,
		RiskLevel: models.RiskLow,
		Gaps:      []models.Gap{},
		CreatedAt: s.now,
		UpdatedAt: s.now,
		Version:   1,
	}
}

func (s *StoreSuite) entryFor(item *models.Item) *audit.Entry {
	return &audit.Entry{
		ID:         id.NewEntryID(),
		Timestamp:  s.now,
		Actor:      requestcontext.ActorRef{ID: "tester"},
		EntityType: audit.EntityItem,
		EntityID:   item.ID.String(),
		ItemID:     item.ID,
		Action:     audit.ActionItemCreated,
		After:      []byte(`{}`),
	}
}

func (s *StoreSuite) TestItems() {
	s.Run("create and get return independent copies", func() {
		item := s.newItem("governance")
		s.Require().NoError(s.store.CreateItem(s.ctx, item))

		got, err := s.store.GetItem(s.ctx, item.ID)
		s.Require().NoError(err)
		got.Title = "changed"

		again, err := s.store.GetItem(s.ctx, item.ID)
		s.Require().NoError(err)
		s.Equal("CQC well-led", again.Title)
	})

	s.Run("unknown item is not found", func() {
		_, err := s.store.GetItem(s.ctx, id.NewItemID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("update requires a newer version", func() {
		item := s.newItem("governance")
		s.Require().NoError(s.store.CreateItem(s.ctx, item))
		s.ErrorIs(s.store.UpdateItem(s.ctx, item), sentinel.ErrVersionConflict)

		item.Version++
		s.NoError(s.store.UpdateItem(s.ctx, item))
	})

	s.Run("gaps resolve to their item", func() {
		item := s.newItem("safety")
		gapID := id.NewGapID()
		item.Gaps = append(item.Gaps, models.Gap{ID: gapID, ItemID: item.ID, Status: models.GapOpen})
		s.Require().NoError(s.store.CreateItem(s.ctx, item))

		owner, err := s.store.FindItemByGap(s.ctx, gapID)
		s.Require().NoError(err)
		s.Equal(item.ID, owner.ID)
	})

	s.Run("list applies the query", func() {
		archived := s.newItem("archive-me")
		archived.Status = models.StatusArchived
		s.Require().NoError(s.store.CreateItem(s.ctx, archived))

		items, err := s.store.ListItems(s.ctx, models.ItemQuery{Category: "archive-me"})
		s.Require().NoError(err)
		s.Empty(items)

		items, err = s.store.ListItems(s.ctx, models.ItemQuery{Category: "archive-me", IncludeArchived: true})
		s.Require().NoError(err)
		s.Len(items, 1)
	})
}

func (s *StoreSuite) TestTransactions() {
	s.Run("rollback discards staged items and entries", func() {
		item := s.newItem("governance")
		boom := errors.New("boom")
		err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
			s.Require().NoError(s.store.CreateItem(ctx, item))
			s.Require().NoError(s.store.AppendEntry(ctx, s.entryFor(item)))

			staged, err := s.store.GetItem(ctx, item.ID)
			s.Require().NoError(err)
			s.Equal(item.ID, staged.ID)

			_, err = s.store.GetItem(s.ctx, item.ID)
			s.ErrorIs(err, sentinel.ErrNotFound, "staged writes are invisible outside the transaction")
			return boom
		})
		s.ErrorIs(err, boom)

		_, err = s.store.GetItem(s.ctx, item.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		entries, err := s.store.ListEntries(s.ctx, audit.Filter{ItemID: item.ID})
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("commit publishes item and entry together", func() {
		item := s.newItem("governance")
		err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
			if err := s.store.CreateItem(ctx, item); err != nil {
				return err
			}
			exists, err := s.store.EntityExists(ctx, audit.EntityItem, item.ID.String())
			s.Require().NoError(err)
			s.True(exists)
			return s.store.AppendEntry(ctx, s.entryFor(item))
		})
		s.Require().NoError(err)

		_, err = s.store.GetItem(s.ctx, item.ID)
		s.NoError(err)
		entries, err := s.store.ListEntries(s.ctx, audit.Filter{ItemID: item.ID})
		s.Require().NoError(err)
		s.Len(entries, 1)
		s.Positive(entries[0].Seq)
	})

	s.Run("cancelled context aborts", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		err := s.store.RunInTx(ctx, func(context.Context) error { return nil })
		s.Error(err)
	})
}

func (s *StoreSuite) TestEntries() {
	item := s.newItem("governance")
	s.Require().NoError(s.store.CreateItem(s.ctx, item))
	for i := 0; i < 3; i++ {
		e := s.entryFor(item)
		e.Action = audit.ActionItemReviewed
		s.Require().NoError(s.store.AppendEntry(s.ctx, e))
	}

	entries, err := s.store.ListEntries(s.ctx, audit.Filter{ItemID: item.ID})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Greater(entries[0].Seq, entries[1].Seq, "same timestamp falls back to insertion order, newest first")

	limited, err := s.store.ListEntries(s.ctx, audit.Filter{ItemID: item.ID, Limit: 2})
	s.Require().NoError(err)
	s.Len(limited, 2)

	exists, err := s.store.EntityExists(s.ctx, audit.EntityGap, id.NewGapID().String())
	s.Require().NoError(err)
	s.False(exists)
}
