package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/freeeve/conquest/internal/model"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]string{"id": "game:alpha"})

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type=application/json, got %s", ct)
	}
	var result map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["id"] != "game:alpha" {
		t.Errorf("unexpected body: %v", result)
	}
}

func TestWriteList(t *testing.T) {
	tests := []struct {
		name  string
		items []model.ChatRecord
		want  int
	}{
		{"nil encodes as empty array", nil, 0},
		{"items", []model.ChatRecord{{Message: "hi"}, {Message: "gg"}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeList(rec, tt.items)

			if tt.want == 0 && strings.TrimSpace(rec.Body.String()) != "[]" {
				t.Errorf("expected [], got %s", rec.Body.String())
			}
			var out []model.ChatRecord
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(out) != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, len(out))
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusNotFound, "game not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	var result map[string]string
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result["error"] != "game not found" {
		t.Errorf("expected error=game not found, got %s", result["error"])
	}
}

func TestWriteInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/results", nil)
	writeInternal(rec, req, errors.New("connection refused"), "failed to list results")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("internal error detail should not reach the client")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"refresh_token":"abc"}`, false},
		{"invalid", "not json", true},
		{"empty", "", true},
		{"oversized", `{"refresh_token":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(tt.body))
			var data struct {
				RefreshToken string `json:"refresh_token"`
			}
			err := decodeJSON(httptest.NewRecorder(), req, &data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && data.RefreshToken != "abc" {
				t.Errorf("expected abc, got %s", data.RefreshToken)
			}
		})
	}
}
