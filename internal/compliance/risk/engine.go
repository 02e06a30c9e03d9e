package risk

import (
	"time"

	"complytrack/internal/compliance/models"
)

// Engine evaluates items against a policy.
type Engine struct {
	policy Policy
}

// Evaluation is the derived state for an item at a point in time.
type Evaluation struct {
	Status    models.Status
	RiskLevel models.RiskLevel
	// Changed reports whether Status or RiskLevel differ from the item.
	Changed bool
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// DateStatus derives status from an expiry date alone.
func DateStatus(expiresAt, now time.Time, window time.Duration) models.Status {
	switch {
	case now.After(expiresAt):
		return models.StatusNonCompliant
	case expiresAt.Sub(now) <= window:
		return models.StatusAtRisk
	default:
		return models.StatusCompliant
	}
}

// ScoreStatus maps a compliance score to a status.
func (e *Engine) ScoreStatus(score int) models.Status {
	switch {
	case score >= e.policy.CompliantScore:
		return models.StatusCompliant
	case score >= e.policy.AtRiskScore:
		return models.StatusAtRisk
	default:
		return models.StatusNonCompliant
	}
}

// GapStatus returns the status implied by unresolved gaps.
func GapStatus(gaps []models.Gap) models.Status {
	status := models.StatusCompliant
	for _, g := range gaps {
		if g.IsResolved() {
			continue
		}
		if g.Severity.Blocking() {
			return models.StatusNonCompliant
		}
		status = models.StatusAtRisk
	}
	return status
}

// BaseStatus derives status from dates or score, ignoring gaps.
func (e *Engine) BaseStatus(item *models.Item, now time.Time) models.Status {
	switch {
	case item.ExpiresAt != nil:
		return DateStatus(*item.ExpiresAt, now, e.policy.Window(item.Kind, item.Category))
	case item.Score != nil && item.Kind.ScoreDriven():
		return e.ScoreStatus(*item.Score)
	default:
		return models.StatusCompliant
	}
}

// Derive returns the status an item should have at now. Manual states are
// returned unchanged.
func (e *Engine) Derive(item *models.Item, now time.Time) models.Status {
	if item.Status.IsManual() {
		return item.Status
	}
	return models.Worse(e.BaseStatus(item, now), GapStatus(item.Gaps))
}

// RiskLevel maps a status and category to a risk level.
func (e *Engine) RiskLevel(status models.Status, category string) models.RiskLevel {
	switch status {
	case models.StatusNonCompliant:
		level := models.RiskHigh
		if e.policy.IsSafetyCritical(category) {
			level = models.MaxRisk(level, models.RiskCritical)
		}
		return level
	case models.StatusAtRisk:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Evaluate computes the derived state without touching the item. Archived
// items keep their frozen risk level.
func (e *Engine) Evaluate(item *models.Item, now time.Time) Evaluation {
	if item.IsArchived() {
		return Evaluation{Status: item.Status, RiskLevel: item.RiskLevel}
	}
	status := e.Derive(item, now)
	level := e.RiskLevel(status, item.Category)
	return Evaluation{
		Status:    status,
		RiskLevel: level,
		Changed:   status != item.Status || level != item.RiskLevel,
	}
}

// Apply writes the evaluation onto the item and returns it.
func (e *Engine) Apply(item *models.Item, now time.Time) Evaluation {
	ev := e.Evaluate(item, now)
	item.Status = ev.Status
	item.RiskLevel = ev.RiskLevel
	return ev
}

// Snapshot returns an evaluated copy, leaving the input untouched.
func (e *Engine) Snapshot(item *models.Item, now time.Time) *models.Item {
	c := item.Clone()
	e.Apply(c, now)
	return c
}
