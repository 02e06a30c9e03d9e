package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/gaps"
	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
)

const maxAuditLimit = 1000

// UpdateScoreRequest is the body of PUT /items/{id}/score.
type UpdateScoreRequest struct {
	Score *int `json:"compliance_score"`
}

func (r *UpdateScoreRequest) Validate() error {
	if r.Score == nil {
		return dErrors.New(dErrors.CodeValidation, "compliance_score is required").WithField("compliance_score")
	}
	return nil
}

// SetStatusRequest is the body of PUT /items/{id}/status.
type SetStatusRequest struct {
	Status string `json:"status"`

	parsed models.Status
}

func (r *SetStatusRequest) Validate() error {
	st, err := models.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	r.parsed = st
	return nil
}

// AttachEvidenceRequest is the body of POST /items/{id}/evidence.
type AttachEvidenceRequest struct {
	EvidenceRefs []string `json:"evidence_refs"`
}

func (r *AttachEvidenceRequest) Validate() error {
	if len(r.EvidenceRefs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one evidence reference is required").WithField("evidence_refs")
	}
	return nil
}

// RecordReviewRequest is the optional body of POST /items/{id}/review. A
// missing reviewed_at means now.
type RecordReviewRequest struct {
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

func (r *RecordReviewRequest) Validate() error { return nil }

// ResolveGapRequest is the body of POST /gaps/{id}/resolve.
type ResolveGapRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

func (r *ResolveGapRequest) Normalize() {
	r.ResolutionNotes = strings.TrimSpace(r.ResolutionNotes)
}

func (r *ResolveGapRequest) Validate() error {
	if r.ResolutionNotes == "" {
		return dErrors.New(dErrors.CodeValidation, "resolution notes are required").WithField("resolution_notes")
	}
	return nil
}

// parseItemFilter reads kind, category, status, owner_id, risk_level and
// include_archived from the query string.
func parseItemFilter(q url.Values) (models.ItemFilter, error) {
	var f models.ItemFilter
	var err error
	if v := q.Get("kind"); v != "" {
		if f.Kind, err = models.ParseKind(v); err != nil {
			return f, err
		}
	}
	if v := q.Get("status"); v != "" {
		if f.Status, err = models.ParseStatus(v); err != nil {
			return f, err
		}
	}
	if v := q.Get("risk_level"); v != "" {
		if f.RiskLevel, err = models.ParseRiskLevel(v); err != nil {
			return f, err
		}
	}
	f.Category = q.Get("category")
	f.OwnerID = strings.TrimSpace(q.Get("owner_id"))
	if v := q.Get("include_archived"); v != "" {
		if f.IncludeArchived, err = strconv.ParseBool(v); err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "include_archived must be a boolean").WithField("include_archived")
		}
	}
	return f, nil
}

// parseGapFilter reads status, severity, assignee_id and overdue.
func parseGapFilter(q url.Values, now time.Time) (gaps.Filter, error) {
	var f gaps.Filter
	var err error
	if v := q.Get("status"); v != "" {
		if f.Status, err = models.ParseGapStatus(v); err != nil {
			return f, err
		}
	}
	if v := q.Get("severity"); v != "" {
		if f.Severity, err = models.ParseSeverity(v); err != nil {
			return f, err
		}
	}
	f.AssigneeID = strings.TrimSpace(q.Get("assignee_id"))
	if v := q.Get("overdue"); v != "" {
		overdue, err := strconv.ParseBool(v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "overdue must be a boolean").WithField("overdue")
		}
		if overdue {
			f.OverdueAt = &now
		}
	}
	return f, nil
}

// parseWithinDays reads within_days, defaulting when absent.
func parseWithinDays(q url.Values, fallback int) (int, error) {
	v := q.Get("within_days")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "within_days must be a non-negative integer").WithField("within_days")
	}
	return n, nil
}

// parseAuditFilter reads item_id, entity_type, entity_id, actor_id, action,
// from, to and limit.
func parseAuditFilter(q url.Values) (audit.Filter, error) {
	var f audit.Filter
	if v := q.Get("item_id"); v != "" {
		itemID, err := id.ParseItemID(v)
		if err != nil {
			return f, err
		}
		f.ItemID = itemID
	}
	if v := q.Get("entity_type"); v != "" {
		f.EntityType = audit.EntityType(v)
		if !f.EntityType.IsValid() {
			return f, dErrors.New(dErrors.CodeValidation, "unsupported entity type").WithField("entity_type")
		}
	}
	if v := q.Get("action"); v != "" {
		f.Action = audit.Action(v)
		if !f.Action.IsValid() {
			return f, dErrors.New(dErrors.CodeValidation, "unsupported action").WithField("action")
		}
	}
	f.EntityID = q.Get("entity_id")
	f.ActorID = q.Get("actor_id")
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, p.key+" must be an RFC 3339 timestamp").WithField(p.key)
		}
		t = t.UTC()
		*p.dst = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, dErrors.New(dErrors.CodeValidation, "to must not precede from").WithField("to")
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxAuditLimit {
			return f, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 1000").WithField("limit")
		}
		f.Limit = n
	}
	return f, nil
}
