package shared

import (
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
)

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.c","oops":1}`))
	var dst struct {
		Email string `json:"email"`
	}
	if err := DecodeJSON(r, &dst); err == nil {
		t.Fatal("unknown field accepted")
	}
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.c"}{"email":"x"}`))
	var dst struct {
		Email string `json:"email"`
	}
	if err := DecodeJSON(r, &dst); err == nil {
		t.Fatal("trailing data accepted")
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b+c@sub.domain.org"}
	invalid := []string{"", "nope", "a@", "Name <user@example.com>"}
	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true", e)
		}
	}
}

func TestRequireFields(t *testing.T) {
	missing := RequireFields(map[string]string{
		"name":  "ok",
		"email": "  ",
		"token": "",
	})
	sort.Strings(missing)
	if len(missing) != 2 || missing[0] != "email" || missing[1] != "token" {
		t.Fatalf("missing = %v", missing)
	}
}
