package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"satsjar/internal/idgen"
	"satsjar/internal/service"
	"satsjar/internal/validation"
)

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation error", validation.ValidationError{Field: "age", Message: "must be between 1 and 17"}, http.StatusBadRequest},
		{"duplicate child", service.ErrDuplicateChildName, http.StatusConflict},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"jar ids exhausted", idgen.ErrJarIDExhausted, http.StatusConflict},
		{"child not found", service.ErrChildNotFound, http.StatusNotFound},
		{"wrong parent", service.ErrNotChildParent, http.StatusNotFound},
		{"goal not found", service.ErrGoalNotFound, http.StatusNotFound},
		{"bad login", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"bad child login", service.ErrChildLoginFailed, http.StatusUnauthorized},
		{"pin mismatch", service.ErrPINMismatch, http.StatusUnauthorized},
		{"same text but not sentinel", errors.New(service.ErrDuplicateChildName.Error()), http.StatusInternalServerError},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestRespondServiceErrorWrapped(t *testing.T) {
	// errors.Is should see through fmt.Errorf wrapping
	err := wrap(service.ErrChildNotFound)
	rec := httptest.NewRecorder()
	respondServiceError(rec, err)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func wrap(err error) error {
	return errors.Join(errors.New("context"), err)
}

func TestRespondServiceErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := rec.Body.String()
	if body == "" {
		t.Fatal("expected error body")
	}
	if strings.Contains(body, "connection refused") {
		t.Errorf("internal error detail leaked to client: %s", body)
	}
}
