package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
)

type ItemSuite struct {
	suite.Suite
	now time.Time
}

func TestItemSuite(t *testing.T) {
	suite.Run(t, new(ItemSuite))
}

func (s *ItemSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *ItemSuite) credentialRequest() models.CreateItemRequest {
	expires := s.now.AddDate(1, 0, 0)
	return models.CreateItemRequest{
		Kind:         models.KindCredentialCheck,
		Title:        "  Enhanced DBS - J. Smith ",
		Owner:        models.OwnerRef{ID: "staff-17", DisplayName: "J. Smith"},
		Category:     " Safeguarding ",
		ExpiresAt:    &expires,
		EvidenceRefs: []string{"doc://dbs/1", " doc://dbs/1 ", ""},
		Credential:   &models.CredentialCheck{CheckType: "enhanced", Provider: "DBS"},
	}
}

func (s *ItemSuite) TestConstruction() {
	s.Run("normalizes input and assigns the variant", func() {
		item, err := models.NewItem(id.NewItemID(), s.credentialRequest(), s.now)
		s.Require().NoError(err)
		s.Equal("Enhanced DBS - J. Smith", item.Title)
		s.Equal("safeguarding", item.Category)
		s.Equal([]string{"doc://dbs/1"}, item.EvidenceRefs)
		s.NotNil(item.Credential)
		s.Nil(item.Requirement)
		s.Equal(1, item.Version)
		s.Empty(item.Gaps)
		s.NotNil(item.Gaps)
	})

	s.Run("pending flag starts the item pending", func() {
		req := s.credentialRequest()
		req.Pending = true
		req.ExpiresAt = nil
		item, err := models.NewItem(id.NewItemID(), req, s.now)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, item.Status)
	})

	s.Run("requirement kinds get a requirement variant", func() {
		score := 90
		item, err := models.NewItem(id.NewItemID(), models.CreateItemRequest{
			Kind:     models.KindRegulatoryRequirement,
			Title:    "Ofqual condition C1",
			Owner:    models.OwnerRef{ID: "quality"},
			Category: "regulatory",
			Score:    &score,
		}, s.now)
		s.Require().NoError(err)
		s.NotNil(item.Requirement)
		s.Nil(item.Credential)
		s.Equal(90, *item.Score)
	})
}

func (s *ItemSuite) TestValidation() {
	cases := []struct {
		name   string
		mutate func(r *models.CreateItemRequest)
		field  string
	}{
		{"unknown kind", func(r *models.CreateItemRequest) { r.Kind = "licence" }, "kind"},
		{"empty title", func(r *models.CreateItemRequest) { r.Title = "   " }, "title"},
		{"missing category", func(r *models.CreateItemRequest) { r.Category = "" }, "category"},
		{"missing owner", func(r *models.CreateItemRequest) { r.Owner = models.OwnerRef{} }, "owner"},
		{"score on credential check", func(r *models.CreateItemRequest) { v := 50; r.Score = &v }, "compliance_score"},
		{"credential without expiry", func(r *models.CreateItemRequest) { r.ExpiresAt = nil }, "expires_at"},
		{"expiry before issue", func(r *models.CreateItemRequest) {
			issued := r.ExpiresAt.AddDate(0, 0, 1)
			r.IssuedAt = &issued
		}, "expires_at"},
		{"requirement on credential check", func(r *models.CreateItemRequest) { r.Requirement = &models.Requirement{} }, "requirement"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := s.credentialRequest()
			tc.mutate(&req)
			_, err := models.NewItem(id.NewItemID(), req, s.now)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			s.Contains(err.Error(), tc.field)
		})
	}

	s.Run("explicit no-expiry credential is accepted", func() {
		req := s.credentialRequest()
		req.ExpiresAt = nil
		req.NoExpiry = true
		_, err := models.NewItem(id.NewItemID(), req, s.now)
		s.NoError(err)
	})

	s.Run("score out of range", func() {
		score := 101
		_, err := models.NewItem(id.NewItemID(), models.CreateItemRequest{
			Kind: models.KindStandard, Title: "CQC safe", Owner: models.OwnerRef{ID: "ops"}, Category: "care", Score: &score,
		}, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ItemSuite) TestManualStatus() {
	item, err := models.NewItem(id.NewItemID(), s.credentialRequest(), s.now)
	s.Require().NoError(err)

	s.Run("derived status cannot be set directly", func() {
		err := item.CanSetManualStatus(models.StatusNonCompliant)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("archive sets and restore clears archived_at", func() {
		s.Require().NoError(item.CanSetManualStatus(models.StatusArchived))
		item.ApplyManualStatus(models.StatusArchived, s.now)
		s.True(item.IsArchived())
		s.Require().NotNil(item.ArchivedAt)

		s.Require().NoError(item.CanSetManualStatus(models.StatusCompliant))
		item.ApplyManualStatus(models.StatusCompliant, s.now)
		s.Nil(item.ArchivedAt)
	})

	s.Run("same status is rejected", func() {
		item.ApplyManualStatus(models.StatusPending, s.now)
		err := item.CanSetManualStatus(models.StatusPending)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ItemSuite) TestCloneIsDeep() {
	item, err := models.NewItem(id.NewItemID(), s.credentialRequest(), s.now)
	s.Require().NoError(err)
	gap, err := models.NewGap(id.NewGapID(), item.ID, models.OpenGapRequest{Description: "renew", Severity: models.SeverityLow}, s.now)
	s.Require().NoError(err)
	item.Gaps = append(item.Gaps, *gap)

	clone := item.Clone()
	clone.EvidenceRefs[0] = "changed"
	*clone.ExpiresAt = s.now
	clone.Gaps[0].Description = "changed"

	s.Equal("doc://dbs/1", item.EvidenceRefs[0])
	s.NotEqual(s.now, *item.ExpiresAt)
	s.Equal("renew", item.Gaps[0].Description)
}

type GapSuite struct {
	suite.Suite
	now time.Time
}

func TestGapSuite(t *testing.T) {
	suite.Run(t, new(GapSuite))
}

func (s *GapSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *GapSuite) newGap() *models.Gap {
	due := s.now.AddDate(0, 0, 7)
	g, err := models.NewGap(id.NewGapID(), id.NewItemID(), models.OpenGapRequest{
		Description: "Missing signed policy",
		Severity:    " HIGH ",
		DueAt:       &due,
	}, s.now)
	s.Require().NoError(err)
	return g
}

func (s *GapSuite) TestTransitions() {
	s.Run("open to in-progress to resolved", func() {
		g := s.newGap()
		s.Equal(models.SeverityHigh, g.Severity)
		s.Require().NoError(g.CanStart())
		g.ApplyStart(s.now)
		s.Equal(models.GapInProgress, g.Status)

		s.Require().NoError(g.CanResolve("signed and filed"))
		g.ApplyResolve(" signed and filed ", s.now)
		s.Equal(models.GapResolved, g.Status)
		s.Equal("signed and filed", g.ResolutionNotes)
		s.NotNil(g.ResolvedAt)
	})

	s.Run("resolution notes are required", func() {
		g := s.newGap()
		err := g.CanResolve("  ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("resolved gaps cannot move", func() {
		g := s.newGap()
		g.ApplyResolve("done", s.now)
		s.True(dErrors.HasCode(g.CanStart(), dErrors.CodeInvalidTransition))
		s.True(dErrors.HasCode(g.CanResolve("again"), dErrors.CodeInvalidTransition))
	})

	s.Run("starting twice is rejected", func() {
		g := s.newGap()
		g.ApplyStart(s.now)
		s.True(dErrors.HasCode(g.CanStart(), dErrors.CodeInvalidTransition))
	})
}

func (s *GapSuite) TestOverdue() {
	g := s.newGap()
	s.False(g.Overdue(s.now))
	s.True(g.Overdue(s.now.AddDate(0, 0, 8)))
	g.ApplyResolve("done", s.now)
	s.False(g.Overdue(s.now.AddDate(0, 0, 8)))
}

func (s *GapSuite) TestValidation() {
	_, err := models.NewGap(id.NewGapID(), id.NewItemID(), models.OpenGapRequest{Description: "x", Severity: "urgent"}, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = models.NewGap(id.NewGapID(), id.NewItemID(), models.OpenGapRequest{Severity: models.SeverityLow}, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestSortItems(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	soon := now.AddDate(0, 0, 3)
	later := now.AddDate(0, 1, 0)
	a := &models.Item{ID: id.NewItemID(), RiskLevel: models.RiskHigh}
	b := &models.Item{ID: id.NewItemID(), RiskLevel: models.RiskHigh, ExpiresAt: &later}
	c := &models.Item{ID: id.NewItemID(), RiskLevel: models.RiskHigh, ExpiresAt: &soon}
	d := &models.Item{ID: id.NewItemID(), RiskLevel: models.RiskCritical}
	items := []*models.Item{a, b, c, d}

	models.SortItems(items)

	want := []*models.Item{d, c, b, a}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("position %d: got %s want %s", i, items[i].ID, want[i].ID)
		}
	}
}
