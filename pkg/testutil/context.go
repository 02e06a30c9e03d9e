package testutil

import (
	"net/http"

	"complytrack/pkg/requestcontext"
)

// WithActor adds an acting principal to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithActor(req *http.Request, actorID, name string) *http.Request {
	if actorID == "" {
		return req
	}
	ctx := requestcontext.WithActor(req.Context(), requestcontext.ActorRef{ID: actorID, Name: name})
	return req.WithContext(ctx)
}
