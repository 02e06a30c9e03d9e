package models

import (
	"strings"
	"time"

	dErrors "complytrack/pkg/domain-errors"
	platformstrings "complytrack/pkg/platform/strings"
)

// CreateItemRequest carries the administrative input for a new item.
type CreateItemRequest struct {
	Kind              Kind             `json:"kind"`
	Title             string           `json:"title"`
	Owner             OwnerRef         `json:"owner"`
	Category          string           `json:"category"`
	IssuedAt          *time.Time       `json:"issued_at,omitempty"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
	LastReviewedAt    *time.Time       `json:"last_reviewed_at,omitempty"`
	NextReviewAt      *time.Time       `json:"next_review_at,omitempty"`
	ReviewCadenceDays int              `json:"review_cadence_days,omitempty"`
	Score             *int             `json:"compliance_score,omitempty"`
	EvidenceRefs      []string         `json:"evidence_refs,omitempty"`
	Credential        *CredentialCheck `json:"credential,omitempty"`
	Requirement       *Requirement     `json:"requirement,omitempty"`
	// Pending creates the item in the manual pending state, e.g. a DBS check
	// that has been requested but not returned yet.
	Pending bool `json:"pending,omitempty"`
	// NoExpiry must be set for credential checks that genuinely do not expire;
	// a missing expiry is never defaulted silently.
	NoExpiry bool `json:"no_expiry,omitempty"`
}

func (r *CreateItemRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = NormalizeCategory(r.Category)
	r.Owner.ID = strings.TrimSpace(r.Owner.ID)
	r.Owner.DisplayName = strings.TrimSpace(r.Owner.DisplayName)
	r.EvidenceRefs = platformstrings.NormalizeRefs(r.EvidenceRefs)
}

func (r *CreateItemRequest) Validate() error {
	if !r.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unsupported kind").WithField("kind")
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required").WithField("title")
	}
	if len(r.Title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less").WithField("title")
	}
	if r.Category == "" {
		return dErrors.New(dErrors.CodeValidation, "category is required").WithField("category")
	}
	if r.Owner.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "owner id is required").WithField("owner")
	}
	if r.Kind == KindCredentialCheck {
		if r.Score != nil {
			return dErrors.New(dErrors.CodeValidation, "credential checks are status-driven and take no score").WithField("compliance_score")
		}
		if r.Requirement != nil {
			return dErrors.New(dErrors.CodeValidation, "requirement details are not valid for credential checks").WithField("requirement")
		}
		if r.ExpiresAt == nil && !r.NoExpiry && !r.Pending {
			return dErrors.New(dErrors.CodeValidation, "credential checks need expires_at or an explicit no_expiry flag").WithField("expires_at")
		}
	} else if r.Credential != nil {
		return dErrors.New(dErrors.CodeValidation, "credential details are only valid for credential checks").WithField("credential")
	}
	if r.ExpiresAt != nil && r.NoExpiry {
		return dErrors.New(dErrors.CodeValidation, "expires_at conflicts with no_expiry").WithField("expires_at")
	}
	if r.Score != nil {
		if err := validateScore(*r.Score); err != nil {
			return err
		}
	}
	if r.IssuedAt != nil && r.ExpiresAt != nil && r.ExpiresAt.Before(*r.IssuedAt) {
		return dErrors.New(dErrors.CodeValidation, "expires_at must not precede issued_at").WithField("expires_at")
	}
	if r.ReviewCadenceDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "review cadence must not be negative").WithField("review_cadence_days")
	}
	return nil
}

// OpenGapRequest carries the input for a new gap.
type OpenGapRequest struct {
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	AssignedTo  OwnerRef   `json:"assigned_to"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

func (r *OpenGapRequest) Normalize() {
	r.Description = strings.TrimSpace(r.Description)
	r.Severity = Severity(strings.ToLower(strings.TrimSpace(string(r.Severity))))
	r.AssignedTo.ID = strings.TrimSpace(r.AssignedTo.ID)
}

func (r *OpenGapRequest) Validate() error {
	if r.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required").WithField("description")
	}
	if !r.Severity.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unsupported severity").WithField("severity")
	}
	return nil
}

// RenewRequest replaces the validity window of an item, e.g. after a DBS re-check.
type RenewRequest struct {
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (r *RenewRequest) Validate() error {
	if r.ExpiresAt == nil {
		return dErrors.New(dErrors.CodeValidation, "expires_at is required").WithField("expires_at")
	}
	if r.IssuedAt != nil && r.ExpiresAt.Before(*r.IssuedAt) {
		return dErrors.New(dErrors.CodeValidation, "expires_at must not precede issued_at").WithField("expires_at")
	}
	return nil
}
