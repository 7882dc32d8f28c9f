package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/lotmarket/internal/common"
	"github.com/atinyakov/lotmarket/internal/models"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	registerErr error
	authErr     error
	user        models.User
}

func (f *fakeAuthService) Register(ctx context.Context, username, password, email string, profile models.Profile) (models.User, error) {
	if f.registerErr != nil {
		return models.User{}, f.registerErr
	}
	return models.User{Username: username, Email: email}, nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, identifier, password string) (models.User, error) {
	if f.authErr != nil {
		return models.User{}, f.authErr
	}
	return f.user, nil
}

// fakeTokenIssuer mints a fixed token.
type fakeTokenIssuer struct {
	err error
}

func (f *fakeTokenIssuer) Generate(username string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + username, nil
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		service        *fakeAuthService
		tokens         *fakeTokenIssuer
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "invalid JSON",
			body:           `not a json`,
			service:        &fakeAuthService{},
			tokens:         &fakeTokenIssuer{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "validation failure",
			body:           `{"login":"","password":"secret","email":"a@x.com"}`,
			service:        &fakeAuthService{registerErr: fmt.Errorf("%w: username is required", common.ErrValidation)},
			tokens:         &fakeTokenIssuer{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "username is required",
		},
		{
			name:           "duplicate username",
			body:           `{"login":"bob","password":"secret","email":"b@x.com"}`,
			service:        &fakeAuthService{registerErr: common.ErrDuplicateUsername},
			tokens:         &fakeTokenIssuer{},
			expectedCode:   http.StatusConflict,
			expectedSubstr: "username already taken",
		},
		{
			name:           "duplicate email",
			body:           `{"login":"bob","password":"secret","email":"a@x.com"}`,
			service:        &fakeAuthService{registerErr: common.ErrDuplicateEmail},
			tokens:         &fakeTokenIssuer{},
			expectedCode:   http.StatusConflict,
			expectedSubstr: "email already registered",
		},
		{
			name:           "storage failure stays generic",
			body:           `{"login":"bob","password":"secret","email":"b@x.com"}`,
			service:        &fakeAuthService{registerErr: errors.New("disk on fire")},
			tokens:         &fakeTokenIssuer{},
			expectedCode:   http.StatusInternalServerError,
			expectedSubstr: "internal error",
		},
		{
			name:           "token failure",
			body:           `{"login":"bob","password":"secret","email":"b@x.com"}`,
			service:        &fakeAuthService{},
			tokens:         &fakeTokenIssuer{err: errors.New("no entropy")},
			expectedCode:   http.StatusInternalServerError,
			expectedSubstr: "failed to generate token",
		},
		{
			name:           "success",
			body:           `{"login":"alice","password":"secret","email":"a@x.com"}`,
			service:        &fakeAuthService{},
			tokens:         &fakeTokenIssuer{},
			expectedCode:   http.StatusCreated,
			expectedSubstr: "token-for-alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/register", bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: tt.service, Tokens: tt.tokens}
			h.Register(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}

			buf := new(bytes.Buffer)
			if _, err := buf.ReadFrom(res.Body); err != nil {
				t.Fatalf("failed to read body: %v", err)
			}
			if !bytes.Contains(buf.Bytes(), []byte(tt.expectedSubstr)) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, buf.String())
			}
		})
	}
}

func TestAuthHandler_RegisterNeverEchoesCredential(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/register",
		bytes.NewBufferString(`{"login":"alice","password":"secret","email":"a@x.com"}`))
	h := &AuthHandler{AuthService: &fakeAuthService{}, Tokens: &fakeTokenIssuer{}}
	h.Register(rec, req)

	if bytes.Contains(rec.Body.Bytes(), []byte("password")) ||
		bytes.Contains(rec.Body.Bytes(), []byte("credential")) {
		t.Errorf("response leaks credential material: %s", rec.Body.String())
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		service      *fakeAuthService
		expectedCode int
	}{
		{
			name:         "invalid JSON",
			body:         `oops`,
			service:      &fakeAuthService{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "missing password",
			body:         `{"login":"alice"}`,
			service:      &fakeAuthService{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "bad credentials",
			body:         `{"login":"alice","password":"wrong"}`,
			service:      &fakeAuthService{authErr: common.ErrInvalidCredentials},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "success",
			body:         `{"login":"alice","password":"secret"}`,
			service:      &fakeAuthService{user: models.User{Username: "alice", Email: "a@x.com"}},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: tt.service, Tokens: &fakeTokenIssuer{}}
			h.Login(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}
			if tt.expectedCode == http.StatusOK {
				var payload struct {
					Token string `json:"token"`
					User  struct {
						Username string `json:"username"`
					} `json:"user"`
				}
				if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if payload.Token != "token-for-alice" {
					t.Errorf("token = %q; want token-for-alice", payload.Token)
				}
				if payload.User.Username != "alice" {
					t.Errorf("username = %q; want alice", payload.User.Username)
				}
			}
		})
	}
}
