package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "complytrack/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("validation includes description and field", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "score must be between 0 and 100").WithField("compliance_score"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "validation_failed" {
			t.Fatalf("expected error code validation_failed, got %q", body["error"])
		}
		if body["field"] != "compliance_score" {
			t.Fatalf("expected field compliance_score, got %q", body["field"])
		}
	})

	t.Run("audit failure is a server error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("disk full"), dErrors.CodeAuditWrite, "audit entry could not be persisted"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		if strings.Contains(w.Body.String(), "disk full") {
			t.Fatalf("expected cause to stay out of the response")
		}
	})

	t.Run("uncoded error maps to internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeNotFound:          http.StatusNotFound,
		dErrors.CodeInvalidTransition: http.StatusConflict,
		dErrors.CodeConflict:          http.StatusConflict,
		dErrors.CodeUnauthorized:      http.StatusUnauthorized,
		dErrors.CodeUnavailable:       http.StatusServiceUnavailable,
		dErrors.CodePersistence:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

type scoreBody struct {
	Score *int `json:"score"`
}

func (b *scoreBody) Validate() error {
	if b.Score == nil {
		return dErrors.New(dErrors.CodeValidation, "score is required").WithField("score")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"score": 72}`))
		w := httptest.NewRecorder()
		body, ok := DecodeAndPrepare[scoreBody](w, r, logger, r.Context(), "req-1")
		if !ok || body == nil || *body.Score != 72 {
			t.Fatalf("expected decoded score 72, got ok=%v body=%v", ok, body)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"score": 72, "extra": true}`))
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[scoreBody](w, r, logger, r.Context(), "req-1"); ok {
			t.Fatalf("expected unknown field to be rejected")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[scoreBody](w, r, logger, r.Context(), "req-1"); ok {
			t.Fatalf("expected validation failure")
		}
		if !strings.Contains(w.Body.String(), `"field":"score"`) {
			t.Fatalf("expected field in response, got %s", w.Body.String())
		}
	})
}
