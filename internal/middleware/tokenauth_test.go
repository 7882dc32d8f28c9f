package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeVerifier accepts a single known token.
type fakeVerifier struct {
	token    string
	username string
}

func (f *fakeVerifier) Verify(token string) (string, error) {
	if token == f.token {
		return f.username, nil
	}
	return "", errors.New("invalid token")
}

func TestTokenAuth(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		wantUser   string
	}{
		{name: "valid token", authHeader: "Bearer good-token", wantUser: "alice"},
		{name: "no header", authHeader: "", wantUser: ""},
		{name: "invalid token", authHeader: "Bearer bad-token", wantUser: ""},
		{name: "not a bearer scheme", authHeader: "Basic Zm9vOmJhcg==", wantUser: ""},
	}

	verifier := &fakeVerifier{token: "good-token", username: "alice"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = GetUserFromContext(r.Context())
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			TokenAuth(verifier)(inner).ServeHTTP(rec, req)

			if gotUser != tt.wantUser {
				t.Errorf("resolved user = %q; want %q", gotUser, tt.wantUser)
			}
		})
	}
}

func TestGetUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if got := GetUserFromContext(req.Context()); got != "" {
		t.Errorf("expected anonymous, got %q", got)
	}
}
