package sentinel

import "errors"

// Store-level facts. Persistence adapters return these (optionally wrapped)
// and the compliance service translates them into coded domain errors.
//
//   - ErrNotFound: no record with the requested id
//   - ErrVersionConflict: record changed since it was read
//   - ErrUnknownEntity: audit entry references an entity the store has never seen
//   - ErrUnavailable: backing storage cannot be reached
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrUnavailable     = errors.New("unavailable")
)
