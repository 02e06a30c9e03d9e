package service

import (
	"errors"

	dErrors "complytrack/pkg/domain-errors"
	"complytrack/pkg/platform/sentinel"
)

// wrapStoreErr maps store sentinels onto coded errors. Errors that already
// carry a code pass through unchanged.
func wrapStoreErr(err error, entityID, action string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "compliance item not found").WithEntity(entityID)
	case errors.Is(err, sentinel.ErrVersionConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "item was modified concurrently").WithEntity(entityID)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "compliance store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodePersistence, "failed to "+action).WithEntity(entityID)
	}
}
