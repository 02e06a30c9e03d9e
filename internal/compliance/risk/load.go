package risk

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"complytrack/internal/compliance/models"
)

// policyFile is the on-disk form of a Policy. Windows are whole days; any
// field left out keeps its default.
type policyFile struct {
	KindWindowDays     map[string]int `yaml:"kind_window_days"`
	CategoryWindowDays map[string]int `yaml:"category_window_days"`
	SafetyCritical     []string       `yaml:"safety_critical"`
	Scores             *struct {
		Compliant *int `yaml:"compliant"`
		AtRisk    *int `yaml:"at_risk"`
	} `yaml:"scores"`
}

// LoadPolicy reads a YAML policy file layered over DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read risk policy: %w", err)
	}
	return ParsePolicy(raw)
}

// ParsePolicy decodes YAML policy content layered over DefaultPolicy.
func ParsePolicy(raw []byte) (Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Policy{}, fmt.Errorf("parse risk policy: %w", err)
	}

	p := DefaultPolicy()
	for kind, days := range f.KindWindowDays {
		p.KindWindows[models.Kind(kind)] = time.Duration(days) * day
	}
	for category, days := range f.CategoryWindowDays {
		p.CategoryWindows[models.NormalizeCategory(category)] = time.Duration(days) * day
	}
	if f.SafetyCritical != nil {
		p.SafetyCritical = make(map[string]bool, len(f.SafetyCritical))
		for _, c := range f.SafetyCritical {
			p.SafetyCritical[models.NormalizeCategory(c)] = true
		}
	}
	if f.Scores != nil {
		if f.Scores.Compliant != nil {
			p.CompliantScore = *f.Scores.Compliant
		}
		if f.Scores.AtRisk != nil {
			p.AtRiskScore = *f.Scores.AtRisk
		}
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
