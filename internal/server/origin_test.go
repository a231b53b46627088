package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

// TestOriginPolicyAllowlist tests normalization and matching of configured
// origins.
func TestOriginPolicyAllowlist(t *testing.T) {
	policy := newOriginPolicy([]string{"http://localhost:8080", " HTTPS://Chat.Example.COM ", "not a url"})

	cases := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:8080", true},
		{"HTTP://LOCALHOST:8080", true},
		{"https://chat.example.com", true},
		{"http://evil.example.com", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := policy.isAllowed(requestWithOrigin(tc.origin)); got != tc.allowed {
			t.Errorf("isAllowed(%q) = %v, want %v", tc.origin, got, tc.allowed)
		}
	}
}

// TestOriginPolicyWildcard tests that "*" admits any well-formed origin but
// still requires the header to be present.
func TestOriginPolicyWildcard(t *testing.T) {
	policy := newOriginPolicy([]string{"*"})

	if !policy.isAllowed(requestWithOrigin("http://anything.example.com")) {
		t.Error("Expected wildcard to admit a well-formed origin")
	}
	if policy.isAllowed(requestWithOrigin("")) {
		t.Error("Expected missing Origin header to be refused even with wildcard")
	}
}
