package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/attendance", nil)
	p := ParsePagination(r, 10, 100)
	if p.Page != 1 || p.Limit != 10 {
		t.Fatalf("expected page=1 limit=10, got %+v", p)
	}
	if p.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", p.Offset())
	}
}

func TestParsePaginationExplicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/attendance?page=3&limit=25", nil)
	p := ParsePagination(r, 10, 100)
	if p.Page != 3 || p.Limit != 25 {
		t.Fatalf("expected page=3 limit=25, got %+v", p)
	}
	if p.Offset() != 50 {
		t.Fatalf("expected offset 50, got %d", p.Offset())
	}
}

func TestParsePaginationClampsAndIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/attendance?page=-2&limit=9999", nil)
	p := ParsePagination(r, 10, 100)
	if p.Page != 1 {
		t.Fatalf("negative page should fall back to 1, got %d", p.Page)
	}
	if p.Limit != 100 {
		t.Fatalf("limit should clamp to max, got %d", p.Limit)
	}
}
