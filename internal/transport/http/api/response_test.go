package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"hrops/internal/platform/requestctx"
)

func TestFailEnvelope(t *testing.T) {
	r := httptest.NewRequest("GET", "/x", nil)
	r = r.WithContext(requestctx.WithRequestID(r.Context(), "req-123"))
	w := httptest.NewRecorder()

	Fail(w, r, 404, "not_found", "thing not found")

	if w.Code != 404 {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Success {
		t.Fatal("success = true on failure")
	}
	if env.Error == nil || env.Error.Code != "not_found" {
		t.Fatalf("error = %+v", env.Error)
	}
	if env.RequestID != "req-123" {
		t.Fatalf("requestId = %q", env.RequestID)
	}
}

func TestPaginatedMeta(t *testing.T) {
	r := httptest.NewRequest("GET", "/x", nil)
	w := httptest.NewRecorder()

	Paginated(w, r, []int{1, 2, 3}, 45, 2, 20)

	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Meta == nil {
		t.Fatal("meta missing")
	}
	if env.Meta.Total != 45 || env.Meta.TotalPages != 3 || env.Meta.CurrentPage != 2 {
		t.Fatalf("meta = %+v", env.Meta)
	}
}
