package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leadvett/backend/internal/auth"
)

func protectedHandler(t *testing.T, tokens *auth.Tokens) (http.Handler, *int64) {
	t.Helper()
	var seen int64
	h := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			t.Error("expected user id in context")
		}
		seen = uid
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &seen
}

func TestAuth_ValidToken(t *testing.T) {
	tokens := auth.NewTokens("test-secret")
	token, err := tokens.Generate(42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	h, seen := protectedHandler(t, tokens)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if *seen != 42 {
		t.Errorf("user id = %d, want 42", *seen)
	}
}

func TestAuth_Rejects(t *testing.T) {
	tokens := auth.NewTokens("test-secret")
	foreign, _ := auth.NewTokens("other-secret").Generate(42)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + foreign},
	}
	for _, tt := range tests {
		h, _ := protectedHandler(t, tokens)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/forms", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, http.StatusUnauthorized)
		}
	}
}
