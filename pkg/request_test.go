package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAccessTokenLookupOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws/messaging?token=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	r.AddCookie(&http.Cookie{Name: "accessToken", Value: "from-cookie"})

	if got := AccessToken(r, "accessToken", true); got != "from-cookie" {
		t.Fatalf("cookie should win, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/ws/messaging?token=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	if got := AccessToken(r, "accessToken", true); got != "from-query" {
		t.Fatalf("query should win over header, got %q", got)
	}
	if got := AccessToken(r, "accessToken", false); got != "from-header" {
		t.Fatalf("query disabled, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	r.Header.Set("Authorization", "Basic abc")
	if got := AccessToken(r, "accessToken", true); got != "" {
		t.Fatalf("expected no token, got %q", got)
	}
}
