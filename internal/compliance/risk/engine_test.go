package risk_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"complytrack/internal/compliance/models"
	"complytrack/internal/compliance/risk"
	id "complytrack/pkg/domain"
)

type EngineSuite struct {
	suite.Suite
	engine *risk.Engine
	now    time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = risk.NewEngine(risk.DefaultPolicy())
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (s *EngineSuite) credential(expiresIn time.Duration, category string) *models.Item {
	expires := s.now.Add(expiresIn)
	return &models.Item{
		ID:        id.NewItemID(),
		Kind:      models.KindCredentialCheck,
		Category:  category,
		ExpiresAt: &expires,
		Status:    models.StatusCompliant,
		RiskLevel: models.RiskLow,
	}
}

func (s *EngineSuite) TestDateStatus() {
	window := 90 * 24 * time.Hour
	s.Equal(models.StatusCompliant, risk.DateStatus(s.now.AddDate(0, 6, 0), s.now, window))
	s.Equal(models.StatusAtRisk, risk.DateStatus(s.now.AddDate(0, 0, 10), s.now, window))
	s.Equal(models.StatusAtRisk, risk.DateStatus(s.now.Add(window), s.now, window), "boundary is inclusive")
	s.Equal(models.StatusAtRisk, risk.DateStatus(s.now, s.now, window), "expiring right now is not yet expired")
	s.Equal(models.StatusNonCompliant, risk.DateStatus(s.now.Add(-time.Second), s.now, window))
}

func (s *EngineSuite) TestScoreStatus() {
	s.Equal(models.StatusCompliant, s.engine.ScoreStatus(80))
	s.Equal(models.StatusAtRisk, s.engine.ScoreStatus(79))
	s.Equal(models.StatusAtRisk, s.engine.ScoreStatus(50))
	s.Equal(models.StatusNonCompliant, s.engine.ScoreStatus(49))
}

func (s *EngineSuite) TestRiskLevel() {
	s.Equal(models.RiskCritical, s.engine.RiskLevel(models.StatusNonCompliant, "safeguarding"))
	s.Equal(models.RiskCritical, s.engine.RiskLevel(models.StatusNonCompliant, " Safety "))
	s.Equal(models.RiskHigh, s.engine.RiskLevel(models.StatusNonCompliant, "governance"))
	s.Equal(models.RiskMedium, s.engine.RiskLevel(models.StatusAtRisk, "safety"))
	s.Equal(models.RiskLow, s.engine.RiskLevel(models.StatusCompliant, "safety"))
	s.Equal(models.RiskLow, s.engine.RiskLevel(models.StatusPending, "safety"))
}

func (s *EngineSuite) TestDerivation() {
	s.Run("re-deriving with the same now is idempotent", func() {
		for _, offset := range []time.Duration{-48 * time.Hour, 0, 10 * 24 * time.Hour, 200 * 24 * time.Hour} {
			item := s.credential(offset, "governance")
			first := s.engine.Apply(item, s.now)
			second := s.engine.Evaluate(item, s.now)
			s.Equal(first.Status, second.Status)
			s.Equal(first.RiskLevel, second.RiskLevel)
			s.False(second.Changed)
		}
	})

	s.Run("credential expiring in ten days is at-risk then non-compliant after expiry", func() {
		item := s.credential(10*24*time.Hour, "governance")
		s.engine.Apply(item, s.now)
		s.Equal(models.StatusAtRisk, item.Status)

		later := item.ExpiresAt.AddDate(0, 0, 1)
		ev := s.engine.Apply(item, later)
		s.Equal(models.StatusNonCompliant, ev.Status)
		s.GreaterOrEqual(ev.RiskLevel.Rank(), models.RiskHigh.Rank())
	})

	s.Run("archived items never re-derive", func() {
		item := s.credential(-24*time.Hour, "safety")
		item.Status = models.StatusArchived
		item.RiskLevel = models.RiskLow
		for _, at := range []time.Time{s.now, s.now.AddDate(5, 0, 0)} {
			ev := s.engine.Evaluate(item, at)
			s.Equal(models.StatusArchived, ev.Status)
			s.Equal(models.RiskLow, ev.RiskLevel)
			s.False(ev.Changed)
		}
	})

	s.Run("pending suspends derivation", func() {
		item := s.credential(-24*time.Hour, "safety")
		item.Status = models.StatusPending
		s.Equal(models.StatusPending, s.engine.Evaluate(item, s.now).Status)
	})

	s.Run("unresolved gaps worsen the base status", func() {
		item := s.credential(365*24*time.Hour, "governance")
		item.Gaps = []models.Gap{{ID: id.NewGapID(), Severity: models.SeverityMedium, Status: models.GapOpen}}
		s.Equal(models.StatusAtRisk, s.engine.Derive(item, s.now))

		item.Gaps = append(item.Gaps, models.Gap{ID: id.NewGapID(), Severity: models.SeverityCritical, Status: models.GapInProgress})
		s.Equal(models.StatusNonCompliant, s.engine.Derive(item, s.now))

		for i := range item.Gaps {
			item.Gaps[i].Status = models.GapResolved
		}
		s.Equal(models.StatusCompliant, s.engine.Derive(item, s.now))
	})

	s.Run("score-driven items follow their score", func() {
		score := 62
		item := &models.Item{Kind: models.KindStandard, Category: "care", Score: &score, Status: models.StatusCompliant}
		s.Equal(models.StatusAtRisk, s.engine.Derive(item, s.now))
	})

	s.Run("items without expiry or score are compliant", func() {
		item := &models.Item{Kind: models.KindStandard, Category: "care", Status: models.StatusAtRisk}
		s.Equal(models.StatusCompliant, s.engine.Derive(item, s.now))
	})

	s.Run("snapshot leaves the input untouched", func() {
		item := s.credential(-time.Hour, "governance")
		snap := s.engine.Snapshot(item, s.now)
		s.Equal(models.StatusNonCompliant, snap.Status)
		s.Equal(models.StatusCompliant, item.Status)
	})
}

func (s *EngineSuite) TestCategoryWindowOverride() {
	policy := risk.DefaultPolicy()
	policy.CategoryWindows["fire-safety"] = 7 * 24 * time.Hour
	engine := risk.NewEngine(policy)

	item := s.credential(10*24*time.Hour, "fire-safety")
	s.Equal(models.StatusCompliant, engine.Derive(item, s.now))
	item.Category = "governance"
	s.Equal(models.StatusAtRisk, engine.Derive(item, s.now))
}

func (s *EngineSuite) TestPolicyValidate() {
	s.NoError(risk.DefaultPolicy().Validate())

	bad := risk.DefaultPolicy()
	bad.AtRiskScore = 90
	s.Error(bad.Validate())

	bad = risk.DefaultPolicy()
	bad.KindWindows["licence"] = time.Hour
	s.Error(bad.Validate())
}
