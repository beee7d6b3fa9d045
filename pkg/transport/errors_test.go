package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/auth"
	"github.com/plume-dev/plume/pkg/storage"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
	}{
		{
			name:       "parse error",
			err:        &auth.ParseError{Reason: "bad header"},
			wantCode:   http.StatusBadRequest,
			wantStatus: api.StatusBadRequest,
		},
		{
			name:       "validation error",
			err:        &api.ValidationError{Param: "title", Message: "title is required"},
			wantCode:   http.StatusBadRequest,
			wantStatus: api.StatusBadRequest,
		},
		{
			name:       "unauthorized",
			err:        auth.ErrUnauthorized,
			wantCode:   http.StatusUnauthorized,
			wantStatus: api.StatusNotAuthorized,
		},
		{
			name:       "wrapped unauthorized",
			err:        fmt.Errorf("login: %w", auth.ErrUnauthorized),
			wantCode:   http.StatusUnauthorized,
			wantStatus: api.StatusNotAuthorized,
		},
		{
			name:       "not found",
			err:        storage.ErrNotFound,
			wantCode:   http.StatusNotFound,
			wantStatus: api.StatusNotFound,
		},
		{
			name:       "encryption fault",
			err:        &auth.EncryptionError{Err: errors.New("corrupt digest")},
			wantCode:   http.StatusInternalServerError,
			wantStatus: api.StatusInternalError,
		},
		{
			name:       "conflict is a server fault",
			err:        storage.ErrConflict,
			wantCode:   http.StatusInternalServerError,
			wantStatus: api.StatusInternalError,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantCode:   http.StatusInternalServerError,
			wantStatus: api.StatusInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status := HTTPStatusFromError(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
		})
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/posts/99", nil)

	WriteError(rec, req, nil, storage.ErrNotFound)

	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body api.StatusBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Status != api.StatusNotFound {
		t.Errorf("body.status = %q, want %q", body.Status, api.StatusNotFound)
	}
}

func TestWriteErrorServerFaultBodyIsOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/posts", nil)

	WriteError(rec, req, nil, errors.New("pq: connection reset by peer"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", rec.Code)
	}

	var body api.StatusBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	// The exact historical string, misspelling included.
	if body.Status != "an internal error has occured" {
		t.Errorf("body.status = %q, want the fixed internal error string", body.Status)
	}
}
