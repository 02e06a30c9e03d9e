//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/models"
	"complytrack/internal/compliance/service"
	"complytrack/internal/compliance/store/postgres"
	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
	"complytrack/pkg/platform/sentinel"
	"complytrack/pkg/requestcontext"
	"complytrack/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	ctx      context.Context
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB, postgres.WithTxTimeout(2*time.Second))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	// Postgres keeps microseconds.
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	err := s.postgres.TruncateTables(s.ctx, "audit_entries", "gaps", "items")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newItem() *models.Item {
	expires := s.now.AddDate(1, 0, 0)
	score := 88
	return &models.Item{
		ID:                id.NewItemID(),
		Kind:              models.KindRegulatoryRequirement,
		Title:             "Ofqual condition C2",
		Owner:             models.OwnerRef{ID: "exams", DisplayName: "Exams Office"},
		Category:          "assessment",
		ExpiresAt:         &expires,
		ReviewCadenceDays: 180,
		Score:             &score,
		Status:            models.StatusCompliant,
		RiskLevel:         models.RiskLow,
		EvidenceRefs:      []string{"s3://evidence/c2.pdf"},
		Gaps:              []models.Gap{},
		Requirement:       &models.Requirement{Regulator: "Ofqual", Reference: "C2"},
		CreatedAt:         s.now,
		UpdatedAt:         s.now,
		Version:           1,
	}
}

func (s *PostgresStoreSuite) entryFor(item *models.Item, action audit.Action, at time.Time) *audit.Entry {
	return &audit.Entry{
		ID:         id.NewEntryID(),
		Timestamp:  at,
		Actor:      requestcontext.ActorRef{ID: "u-1", Name: "Dana"},
		EntityType: audit.EntityItem,
		EntityID:   item.ID.String(),
		ItemID:     item.ID,
		Action:     action,
		After:      []byte(`{"status":"compliant"}`),
		RequestID:  "req-9",
	}
}

func (s *PostgresStoreSuite) TestCreateAndGetRoundTrip() {
	item := s.newItem()
	s.Require().NoError(s.store.CreateItem(s.ctx, item))

	got, err := s.store.GetItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(item.Title, got.Title)
	s.Equal(item.Owner, got.Owner)
	s.Equal(*item.Score, *got.Score)
	s.True(item.ExpiresAt.Equal(*got.ExpiresAt))
	s.Equal(item.EvidenceRefs, got.EvidenceRefs)
	s.Equal(item.Requirement, got.Requirement)
	s.Nil(got.Credential)
	s.Equal(1, got.Version)

	err = s.store.CreateItem(s.ctx, item)
	s.ErrorIs(err, sentinel.ErrVersionConflict)

	_, err = s.store.GetItem(s.ctx, id.NewItemID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateChecksVersion() {
	item := s.newItem()
	s.Require().NoError(s.store.CreateItem(s.ctx, item))

	stale := item.Clone()
	item.Title = "Ofqual condition C2 (revised)"
	item.Touch(s.now)
	s.Require().NoError(s.store.UpdateItem(s.ctx, item))

	stale.Touch(s.now)
	err := s.store.UpdateItem(s.ctx, stale)
	s.ErrorIs(err, sentinel.ErrVersionConflict)

	missing := s.newItem()
	missing.Touch(s.now)
	err = s.store.UpdateItem(s.ctx, missing)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestGapsPersistWithItem() {
	item := s.newItem()
	due := s.now.AddDate(0, 0, 14)
	gap, err := models.NewGap(id.NewGapID(), item.ID, models.OpenGapRequest{
		Description: "Moderation sample missing",
		Severity:    models.SeverityMedium,
		AssignedTo:  models.OwnerRef{ID: "lead-iv"},
		DueAt:       &due,
	}, s.now)
	s.Require().NoError(err)
	item.Gaps = append(item.Gaps, *gap)
	s.Require().NoError(s.store.CreateItem(s.ctx, item))

	owner, err := s.store.FindItemByGap(s.ctx, gap.ID)
	s.Require().NoError(err)
	s.Equal(item.ID, owner.ID)
	s.Require().Len(owner.Gaps, 1)
	s.Equal(models.GapOpen, owner.Gaps[0].Status)

	g, _ := owner.FindGap(gap.ID)
	g.ApplyResolve("sample uploaded", s.now)
	owner.Touch(s.now)
	s.Require().NoError(s.store.UpdateItem(s.ctx, owner))

	reloaded, err := s.store.GetItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(models.GapResolved, reloaded.Gaps[0].Status)
	s.Equal("sample uploaded", reloaded.Gaps[0].ResolutionNotes)

	_, err = s.store.FindItemByGap(s.ctx, id.NewGapID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	item := s.newItem()
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.CreateItem(ctx, item); err != nil {
			return err
		}
		if err := s.store.AppendEntry(ctx, s.entryFor(item, audit.ActionItemCreated, s.now)); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.GetItem(s.ctx, item.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	entries, err := s.store.ListEntries(s.ctx, audit.Filter{ItemID: item.ID})
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *PostgresStoreSuite) TestAuditEntriesOrderedNewestFirst() {
	item := s.newItem()
	s.Require().NoError(s.store.CreateItem(s.ctx, item))

	first := s.entryFor(item, audit.ActionItemCreated, s.now)
	second := s.entryFor(item, audit.ActionScoreUpdated, s.now)
	backfilled := s.entryFor(item, audit.ActionItemReviewed, s.now.Add(-time.Hour))
	for _, e := range []*audit.Entry{first, second, backfilled} {
		s.Require().NoError(s.store.AppendEntry(s.ctx, e))
	}
	s.Less(first.Seq, second.Seq)

	entries, err := s.store.ListEntries(s.ctx, audit.Filter{ItemID: item.ID})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(audit.ActionScoreUpdated, entries[0].Action)
	s.Equal(audit.ActionItemCreated, entries[1].Action)
	s.Equal(audit.ActionItemReviewed, entries[2].Action)
	s.Equal("Dana", entries[0].Actor.Name)
	s.JSONEq(`{"status":"compliant"}`, string(entries[0].After))

	limited, err := s.store.ListEntries(s.ctx, audit.Filter{ItemID: item.ID, Limit: 1})
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *PostgresStoreSuite) TestEntityExists() {
	item := s.newItem()
	s.Require().NoError(s.store.CreateItem(s.ctx, item))

	ok, err := s.store.EntityExists(s.ctx, audit.EntityItem, item.ID.String())
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.EntityExists(s.ctx, audit.EntityGap, id.NewGapID().String())
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PostgresStoreSuite) TestServiceOverPostgres() {
	svc := service.New(s.store, service.WithClock(func() time.Time { return s.now }))
	ctx := requestcontext.WithActor(s.ctx, requestcontext.ActorRef{ID: "u-7"})

	score := 90
	item, err := svc.CreateItem(ctx, models.CreateItemRequest{
		Kind:     models.KindStandard,
		Title:    "Health and safety policy",
		Owner:    models.OwnerRef{ID: "estates"},
		Category: "safety",
		Score:    &score,
	})
	s.Require().NoError(err)

	updated, err := svc.UpdateScore(ctx, item.ID, 20)
	s.Require().NoError(err)
	s.Equal(models.StatusNonCompliant, updated.Status)
	s.Equal(models.RiskCritical, updated.RiskLevel)
	s.Require().Len(updated.Gaps, 1)

	_, err = svc.UpdateScore(ctx, item.ID, 101)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	var actions []audit.Action
	for e, err := range svc.AuditTrail(ctx, audit.Filter{ItemID: item.ID}) {
		s.Require().NoError(err)
		actions = append(actions, e.Action)
	}
	s.Equal([]audit.Action{audit.ActionScoreUpdated, audit.ActionItemCreated}, actions)

	got, err := svc.GetItem(ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(2, got.Version)
	s.Equal(20, *got.Score)
}
