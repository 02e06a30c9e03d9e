// Package risk derives item status and risk level from dates, scores and
// open gaps. Everything here is pure: callers pass "now" explicitly.
package risk

import (
	"time"

	"complytrack/internal/compliance/models"
	dErrors "complytrack/pkg/domain-errors"
)

const day = 24 * time.Hour

const (
	DefaultCompliantScore = 80
	DefaultAtRiskScore    = 50
)

// Policy holds the tunable thresholds used for derivation.
type Policy struct {
	// KindWindows is the warning window before expiry per item kind.
	KindWindows map[models.Kind]time.Duration
	// CategoryWindows overrides KindWindows for a category.
	CategoryWindows map[string]time.Duration
	// SafetyCritical lists categories whose non-compliance is critical.
	SafetyCritical map[string]bool
	CompliantScore int
	AtRiskScore    int
}

// DefaultPolicy returns 90 days for credential checks, 30 days for
// regulatory requirements and standards, and treats safety and safeguarding
// as safety-critical.
func DefaultPolicy() Policy {
	return Policy{
		KindWindows: map[models.Kind]time.Duration{
			models.KindCredentialCheck:       90 * day,
			models.KindRegulatoryRequirement: 30 * day,
			models.KindStandard:              30 * day,
		},
		CategoryWindows: map[string]time.Duration{},
		SafetyCritical: map[string]bool{
			"safety":       true,
			"safeguarding": true,
		},
		CompliantScore: DefaultCompliantScore,
		AtRiskScore:    DefaultAtRiskScore,
	}
}

// Window returns the warning window for an item.
func (p Policy) Window(kind models.Kind, category string) time.Duration {
	if w, ok := p.CategoryWindows[models.NormalizeCategory(category)]; ok {
		return w
	}
	return p.KindWindows[kind]
}

// IsSafetyCritical reports whether a category escalates non-compliance to critical.
func (p Policy) IsSafetyCritical(category string) bool {
	return p.SafetyCritical[models.NormalizeCategory(category)]
}

// Validate rejects inconsistent thresholds.
func (p Policy) Validate() error {
	for kind, w := range p.KindWindows {
		if !kind.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "unknown kind "+string(kind)).WithField("kind_windows")
		}
		if w < 0 {
			return dErrors.New(dErrors.CodeValidation, "warning window must not be negative").WithField("kind_windows")
		}
	}
	for _, w := range p.CategoryWindows {
		if w < 0 {
			return dErrors.New(dErrors.CodeValidation, "warning window must not be negative").WithField("category_windows")
		}
	}
	if p.AtRiskScore < 0 || p.CompliantScore > 100 || p.AtRiskScore > p.CompliantScore {
		return dErrors.New(dErrors.CodeValidation, "score thresholds must satisfy 0 <= at_risk <= compliant <= 100").WithField("scores")
	}
	return nil
}
