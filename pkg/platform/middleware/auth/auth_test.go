package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"complytrack/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return v.claims, v.err
}

func TestRequireActor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen requestcontext.ActorRef
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Actor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		header     string
		validator  stubValidator
		wantStatus int
		wantActor  requestcontext.ActorRef
	}{
		{
			name:       "valid token sets actor",
			header:     "Bearer good",
			validator:  stubValidator{claims: &JWTClaims{ActorID: "u-1", ActorName: "Dana"}},
			wantStatus: http.StatusNoContent,
			wantActor:  requestcontext.ActorRef{ID: "u-1", Name: "Dana"},
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer bad",
			validator:  stubValidator{err: errors.New("signature is invalid")},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token without subject",
			header:     "Bearer empty",
			validator:  stubValidator{claims: &JWTClaims{JTI: "j-1"}},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = requestcontext.ActorRef{}
			req := httptest.NewRequest(http.MethodGet, "/items", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			RequireActor(tt.validator, logger)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantActor, seen)
		})
	}
}
