package domain

import (
	"github.com/google/uuid"

	dErrors "complytrack/pkg/domain-errors"
)

// Typed identifiers keep item, gap, and audit entry ids from being mixed up.
// Construct them with the Parse functions at trust boundaries or the New
// functions inside the core.
type (
	ItemID  uuid.UUID
	GapID   uuid.UUID
	EntryID uuid.UUID
)

func NewItemID() ItemID   { return ItemID(uuid.New()) }
func NewGapID() GapID     { return GapID(uuid.New()) }
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// ParseItemID validates a compliance item id from external input.
func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item_id")
	return ItemID(u), err
}

// ParseGapID validates a gap id from external input.
func ParseGapID(s string) (GapID, error) {
	u, err := parseUUID(s, "gap_id")
	return GapID(u), err
}

// ParseEntryID validates an audit entry id from external input.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s, "entry_id")
	return EntryID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id cannot be empty").WithField(field)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid id format").WithField(field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id cannot be nil").WithField(field)
	}
	return u, nil
}

func (id ItemID) String() string  { return uuid.UUID(id).String() }
func (id GapID) String() string   { return uuid.UUID(id).String() }
func (id EntryID) String() string { return uuid.UUID(id).String() }

func (id ItemID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id GapID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ItemID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id GapID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id EntryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ItemID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *GapID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EntryID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
