// Package audit is the append-only record of every mutation to an item or gap.
// Entries are written in the same transaction as the change they describe;
// a failed append aborts the change.
package audit

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	id "complytrack/pkg/domain"
	"complytrack/pkg/requestcontext"
)

// EntityType names the kind of entity an entry describes.
type EntityType string

const (
	EntityItem EntityType = "compliance_item"
	EntityGap  EntityType = "gap"
)

func (t EntityType) IsValid() bool {
	return t == EntityItem || t == EntityGap
}

// Action is the verb recorded for a mutation.
type Action string

const (
	ActionItemCreated      Action = "item_created"
	ActionScoreUpdated     Action = "item_score_updated"
	ActionStatusSet        Action = "item_status_set"
	ActionStatusRederived  Action = "item_status_rederived"
	ActionEvidenceAttached Action = "item_evidence_attached"
	ActionItemReviewed     Action = "item_reviewed"
	ActionItemRenewed      Action = "item_renewed"
	ActionGapOpened        Action = "gap_opened"
	ActionGapStarted       Action = "gap_started"
	ActionGapResolved      Action = "gap_resolved"
)

var actionEntities = map[Action]EntityType{
	ActionItemCreated:      EntityItem,
	ActionScoreUpdated:     EntityItem,
	ActionStatusSet:        EntityItem,
	ActionStatusRederived:  EntityItem,
	ActionEvidenceAttached: EntityItem,
	ActionItemReviewed:     EntityItem,
	ActionItemRenewed:      EntityItem,
	ActionGapOpened:        EntityGap,
	ActionGapStarted:       EntityGap,
	ActionGapResolved:      EntityGap,
}

func (a Action) IsValid() bool {
	_, ok := actionEntities[a]
	return ok
}

// EntityType returns the entity kind the action applies to.
func (a Action) EntityType() EntityType {
	return actionEntities[a]
}

// Entry is one immutable audit fact. Before is empty for creations.
// Snapshots always describe the owning item, so gap entries show the gap in
// the context of its parent status.
type Entry struct {
	ID         id.EntryID              `json:"id"`
	Seq        int64                   `json:"seq"`
	Timestamp  time.Time               `json:"timestamp"`
	Actor      requestcontext.ActorRef `json:"actor"`
	EntityType EntityType              `json:"entity_type"`
	EntityID   string                  `json:"entity_id"`
	ItemID     id.ItemID               `json:"item_id"`
	Action     Action                  `json:"action"`
	Before     json.RawMessage         `json:"before,omitempty"`
	After      json.RawMessage         `json:"after"`
	RequestID  string                  `json:"request_id,omitempty"`
	UserAgent  string                  `json:"user_agent,omitempty"`
}

// Snapshot serializes an entity for Before/After. A nil value yields nil.
func Snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return b, nil
}

// Filter selects entries. Zero fields match everything; Limit 0 is unbounded.
type Filter struct {
	EntityID   string
	EntityType EntityType
	ItemID     id.ItemID
	ActorID    string
	From       *time.Time
	To         *time.Time
	Action     Action
	Limit      int
}

// Matches reports whether an entry passes the filter. From and To are inclusive.
func (f Filter) Matches(e Entry) bool {
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if !f.ItemID.IsNil() && e.ItemID != f.ItemID {
		return false
	}
	if f.ActorID != "" && e.Actor.ID != f.ActorID {
		return false
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return true
}

// SortNewestFirst orders entries by timestamp descending; insertion order
// breaks ties, latest first.
func SortNewestFirst(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})
}
