// Package events carries facts about item state changes to external
// consumers such as reminder and notification services. Publishing happens
// after commit and never affects the outcome of the change itself.
package events

import (
	"context"
	"sync"
	"time"

	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
)

// Type names the fact being published.
type Type string

const (
	TypeStatusChanged Type = "item.status_changed"
	TypeGapOpened     Type = "gap.opened"
	TypeGapResolved   Type = "gap.resolved"
)

// Event is a fact emitted after a committed change.
type Event struct {
	Type           Type             `json:"type"`
	ItemID         id.ItemID        `json:"item_id"`
	GapID          *id.GapID        `json:"gap_id,omitempty"`
	Title          string           `json:"title"`
	Kind           models.Kind      `json:"kind"`
	Category       string           `json:"category"`
	OwnerID        string           `json:"owner_id"`
	PreviousStatus models.Status    `json:"previous_status,omitempty"`
	Status         models.Status    `json:"status"`
	PreviousRisk   models.RiskLevel `json:"previous_risk_level,omitempty"`
	RiskLevel      models.RiskLevel `json:"risk_level"`
	OccurredAt     time.Time        `json:"occurred_at"`
	RequestID      string           `json:"request_id,omitempty"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Diff derives the events implied by a before/after pair of item snapshots.
// before is nil for newly created items.
func Diff(before, after *models.Item, at time.Time) []Event {
	var out []Event
	base := Event{
		ItemID:     after.ID,
		Title:      after.Title,
		Kind:       after.Kind,
		Category:   after.Category,
		OwnerID:    after.Owner.ID,
		Status:     after.Status,
		RiskLevel:  after.RiskLevel,
		OccurredAt: at,
	}
	if before != nil {
		base.PreviousStatus = before.Status
		base.PreviousRisk = before.RiskLevel
	}
	if before == nil || before.Status != after.Status || before.RiskLevel != after.RiskLevel {
		e := base
		e.Type = TypeStatusChanged
		out = append(out, e)
	}
	for _, g := range after.Gaps {
		var prev *models.Gap
		if before != nil {
			prev, _ = before.FindGap(g.ID)
		}
		gapID := g.ID
		switch {
		case prev == nil:
			e := base
			e.Type, e.GapID = TypeGapOpened, &gapID
			out = append(out, e)
		case !prev.IsResolved() && g.IsResolved():
			e := base
			e.Type, e.GapID = TypeGapResolved, &gapID
			out = append(out, e)
		}
	}
	return out
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event{}, r.events...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
