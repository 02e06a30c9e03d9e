package models

import (
	"strings"
	"time"

	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
)

// Gap is a remediation unit attached to exactly one item.
//
// Invariants:
//   - Status transitions: open → in-progress → resolved, open → resolved
//   - ResolutionNotes is non-empty once resolved
//   - ResolvedAt is set iff Status is resolved
type Gap struct {
	ID              id.GapID   `json:"id"`
	ItemID          id.ItemID  `json:"item_id"`
	Description     string     `json:"description"`
	Severity        Severity   `json:"severity"`
	AssignedTo      OwnerRef   `json:"assigned_to"`
	DueAt           *time.Time `json:"due_at,omitempty"`
	Status          GapStatus  `json:"status"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	OpenedAt        time.Time  `json:"opened_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewGap validates an open-gap request.
func NewGap(gapID id.GapID, itemID id.ItemID, req OpenGapRequest, now time.Time) (*Gap, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &Gap{
		ID:          gapID,
		ItemID:      itemID,
		Description: req.Description,
		Severity:    req.Severity,
		AssignedTo:  req.AssignedTo,
		DueAt:       utcPtr(req.DueAt),
		Status:      GapOpen,
		OpenedAt:    now,
		UpdatedAt:   now,
	}, nil
}

func (g Gap) IsResolved() bool {
	return g.Status == GapResolved
}

// Overdue reports whether an unresolved gap is past its due date.
func (g Gap) Overdue(now time.Time) bool {
	return !g.IsResolved() && g.DueAt != nil && now.After(*g.DueAt)
}

// CanStart checks the open → in-progress transition.
func (g *Gap) CanStart() error {
	switch g.Status {
	case GapOpen:
		return nil
	case GapInProgress:
		return dErrors.New(dErrors.CodeInvalidTransition, "gap is already in progress").WithEntity(g.ID.String())
	default:
		return dErrors.New(dErrors.CodeInvalidTransition, "gap is already resolved").WithEntity(g.ID.String())
	}
}

func (g *Gap) ApplyStart(now time.Time) {
	g.Status = GapInProgress
	g.UpdatedAt = now
}

// CanResolve checks notes and the transition to resolved.
func (g *Gap) CanResolve(notes string) error {
	if g.IsResolved() {
		return dErrors.New(dErrors.CodeInvalidTransition, "gap is already resolved").WithEntity(g.ID.String())
	}
	if strings.TrimSpace(notes) == "" {
		return dErrors.New(dErrors.CodeValidation, "resolution notes are required").WithField("resolution_notes")
	}
	return nil
}

func (g *Gap) ApplyResolve(notes string, now time.Time) {
	resolvedAt := now
	g.Status = GapResolved
	g.ResolutionNotes = strings.TrimSpace(notes)
	g.ResolvedAt = &resolvedAt
	g.UpdatedAt = now
}

func (g Gap) clone() Gap {
	c := g
	c.DueAt = copyTime(g.DueAt)
	c.ResolvedAt = copyTime(g.ResolvedAt)
	return c
}
