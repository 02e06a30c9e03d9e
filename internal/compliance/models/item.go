package models

import (
	"slices"
	"strings"
	"time"

	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
)

const maxTitleLength = 200

// OwnerRef is a weak reference to the responsible staff member or department.
type OwnerRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// CredentialCheck holds fields specific to background and credential checks.
type CredentialCheck struct {
	CheckType      string `json:"check_type,omitempty"` // basic, standard, enhanced, enhanced-barred
	Provider       string `json:"provider,omitempty"`
	CertificateRef string `json:"certificate_ref,omitempty"`
}

// Requirement holds fields for regulatory requirements and internal standards.
type Requirement struct {
	Regulator string `json:"regulator,omitempty"` // e.g. Ofqual, CQC
	Reference string `json:"reference,omitempty"`
	Criteria  string `json:"criteria,omitempty"`
}

// Item is the aggregate root for anything the engine tracks: a DBS check, an
// Ofqual requirement, a CQC standard.
//
// Invariants:
//   - exactly one of Credential/Requirement is set, matching Kind
//   - Score, when set, is within 0..100
//   - items with ExpiresAt that are not pending/archived have a status that is
//     a pure function of (ExpiresAt, now, unresolved gaps)
//   - Gaps are owned exclusively; they are persisted and removed with the item
type Item struct {
	ID                id.ItemID        `json:"id"`
	Kind              Kind             `json:"kind"`
	Title             string           `json:"title"`
	Owner             OwnerRef         `json:"owner"`
	Category          string           `json:"category"`
	IssuedAt          *time.Time       `json:"issued_at,omitempty"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
	LastReviewedAt    *time.Time       `json:"last_reviewed_at,omitempty"`
	NextReviewAt      *time.Time       `json:"next_review_at,omitempty"`
	ReviewCadenceDays int              `json:"review_cadence_days,omitempty"`
	Score             *int             `json:"compliance_score"`
	Status            Status           `json:"status"`
	RiskLevel         RiskLevel        `json:"risk_level"`
	EvidenceRefs      []string         `json:"evidence_refs"`
	Gaps              []Gap            `json:"gaps"`
	Credential        *CredentialCheck `json:"credential,omitempty"`
	Requirement       *Requirement     `json:"requirement,omitempty"`
	ArchivedAt        *time.Time       `json:"archived_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Version           int              `json:"version"`
}

// NewItem validates a create request and builds a pending-derivation item.
// Status and risk are filled in by the risk engine before persisting.
func NewItem(itemID id.ItemID, req CreateItemRequest, now time.Time) (*Item, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	item := &Item{
		ID:                itemID,
		Kind:              req.Kind,
		Title:             req.Title,
		Owner:             req.Owner,
		Category:          req.Category,
		IssuedAt:          utcPtr(req.IssuedAt),
		ExpiresAt:         utcPtr(req.ExpiresAt),
		LastReviewedAt:    utcPtr(req.LastReviewedAt),
		NextReviewAt:      utcPtr(req.NextReviewAt),
		ReviewCadenceDays: req.ReviewCadenceDays,
		Score:             copyInt(req.Score),
		Status:            StatusCompliant,
		RiskLevel:         RiskLow,
		EvidenceRefs:      append([]string{}, req.EvidenceRefs...),
		Gaps:              []Gap{},
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
	}
	if req.Pending {
		item.Status = StatusPending
	}
	switch req.Kind {
	case KindCredentialCheck:
		c := CredentialCheck{}
		if req.Credential != nil {
			c = *req.Credential
		}
		item.Credential = &c
	default:
		r := Requirement{}
		if req.Requirement != nil {
			r = *req.Requirement
		}
		item.Requirement = &r
	}
	return item, nil
}

// Clone returns a deep copy so callers can hold snapshots without sharing
// mutable state with the store.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.IssuedAt = copyTime(i.IssuedAt)
	c.ExpiresAt = copyTime(i.ExpiresAt)
	c.LastReviewedAt = copyTime(i.LastReviewedAt)
	c.NextReviewAt = copyTime(i.NextReviewAt)
	c.ArchivedAt = copyTime(i.ArchivedAt)
	c.Score = copyInt(i.Score)
	c.EvidenceRefs = append([]string{}, i.EvidenceRefs...)
	c.Gaps = make([]Gap, len(i.Gaps))
	for idx, g := range i.Gaps {
		c.Gaps[idx] = g.clone()
	}
	if i.Credential != nil {
		cred := *i.Credential
		c.Credential = &cred
	}
	if i.Requirement != nil {
		req := *i.Requirement
		c.Requirement = &req
	}
	return &c
}

// IsArchived reports whether the item has been retired.
func (i *Item) IsArchived() bool {
	return i.Status == StatusArchived
}

// FindGap returns a pointer into the item's gap list.
func (i *Item) FindGap(gapID id.GapID) (*Gap, bool) {
	for idx := range i.Gaps {
		if i.Gaps[idx].ID == gapID {
			return &i.Gaps[idx], true
		}
	}
	return nil, false
}

// HasUnresolvedGap reports whether any gap still needs remediation.
func (i *Item) HasUnresolvedGap() bool {
	return slices.ContainsFunc(i.Gaps, func(g Gap) bool { return !g.IsResolved() })
}

// SetScore validates and records a compliance score.
func (i *Item) SetScore(score int) error {
	if err := validateScore(score); err != nil {
		return err
	}
	i.Score = &score
	return nil
}

// CanSetManualStatus checks whether a manual change to target is allowed:
// derived → pending/archived, pending ↔ archived, and pending/archived back
// to a derived state (which resumes derivation).
func (i *Item) CanSetManualStatus(target Status) error {
	if !target.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unsupported status").WithField("status")
	}
	if target == i.Status {
		return dErrors.New(dErrors.CodeInvalidTransition, "item is already "+string(target)).WithEntity(i.ID.String())
	}
	if !target.IsManual() && !i.Status.IsManual() {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"derived status cannot be set manually; only pending and archived are manual states").WithEntity(i.ID.String())
	}
	return nil
}

// ApplyManualStatus records the manual state. A derived target clears the
// override; the caller re-derives afterwards.
func (i *Item) ApplyManualStatus(target Status, now time.Time) {
	i.Status = target
	if target == StatusArchived {
		archivedAt := now
		i.ArchivedAt = &archivedAt
	} else {
		i.ArchivedAt = nil
	}
}

// Touch bumps the version and update timestamp after a mutation.
func (i *Item) Touch(now time.Time) {
	i.UpdatedAt = now
	i.Version++
}

func validateScore(score int) error {
	if score < 0 || score > 100 {
		return dErrors.New(dErrors.CodeValidation, "score must be between 0 and 100").WithField("compliance_score")
	}
	return nil
}

// NormalizeCategory lower-cases and trims a category tag.
func NormalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
