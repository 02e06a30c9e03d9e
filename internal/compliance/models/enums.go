package models

import (
	"strings"

	dErrors "complytrack/pkg/domain-errors"
)

// Kind discriminates the item variant.
type Kind string

const (
	KindCredentialCheck       Kind = "credential-check"
	KindRegulatoryRequirement Kind = "regulatory-requirement"
	KindStandard              Kind = "standard"
)

var validKinds = map[Kind]bool{
	KindCredentialCheck:       true,
	KindRegulatoryRequirement: true,
	KindStandard:              true,
}

func (k Kind) IsValid() bool { return validKinds[k] }

// ScoreDriven reports whether the kind carries a compliance score.
func (k Kind) ScoreDriven() bool { return k != KindCredentialCheck }

// ParseKind validates a kind from external input.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported kind").WithField("kind")
	}
	return k, nil
}

// Status is the lifecycle state of a compliance item.
type Status string

const (
	StatusCompliant    Status = "compliant"
	StatusAtRisk       Status = "at-risk"
	StatusNonCompliant Status = "non-compliant"
	StatusPending      Status = "pending"
	StatusArchived     Status = "archived"
)

// statusAliases maps badge wording used by dashboards onto canonical states.
var statusAliases = map[string]Status{
	"expiring": StatusAtRisk,
	"expired":  StatusNonCompliant,
}

var statusRank = map[Status]int{
	StatusCompliant:    1,
	StatusAtRisk:       2,
	StatusNonCompliant: 3,
}

func (s Status) IsValid() bool {
	switch s {
	case StatusCompliant, StatusAtRisk, StatusNonCompliant, StatusPending, StatusArchived:
		return true
	}
	return false
}

// IsManual reports whether the status is only reachable by explicit command.
// Manual states suspend derivation.
func (s Status) IsManual() bool {
	return s == StatusPending || s == StatusArchived
}

// Worse returns the more severe of two derived states.
func Worse(a, b Status) Status {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}

// ParseStatus validates a status from external input, accepting the
// expiring/expired aliases.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if alias, ok := statusAliases[s]; ok {
		return alias, nil
	}
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported status").WithField("status")
	}
	return st, nil
}

// RiskLevel is the coarse triage severity derived from status and category.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Rank orders risk levels; unknown levels rank zero.
func (r RiskLevel) Rank() int { return riskRank[r] }

func (r RiskLevel) IsValid() bool { return riskRank[r] > 0 }

// MaxRisk returns the higher of two risk levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(strings.TrimSpace(strings.ToLower(s)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported risk level").WithField("risk_level")
	}
	return r, nil
}

// Severity grades a gap.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Blocking reports whether an unresolved gap of this severity makes its item
// non-compliant.
func (s Severity) Blocking() bool {
	return s == SeverityHigh || s == SeverityCritical
}

func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.TrimSpace(strings.ToLower(s)))
	if !sev.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported severity").WithField("severity")
	}
	return sev, nil
}

// GapStatus is the remediation state of a gap.
type GapStatus string

const (
	GapOpen       GapStatus = "open"
	GapInProgress GapStatus = "in-progress"
	GapResolved   GapStatus = "resolved"
)

func (s GapStatus) IsValid() bool {
	switch s {
	case GapOpen, GapInProgress, GapResolved:
		return true
	}
	return false
}

func ParseGapStatus(s string) (GapStatus, error) {
	st := GapStatus(strings.TrimSpace(strings.ToLower(s)))
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported gap status").WithField("status")
	}
	return st, nil
}
