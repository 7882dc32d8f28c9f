// Package http provides the HTTP handlers for the marketplace API:
// registration, login, and lot management.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/lotmarket/internal/models"
)

// AuthService defines the authentication operations required by the
// HTTP handlers.
type AuthService interface {
	// Register creates a new user from the given credentials and profile.
	Register(ctx context.Context, username, password, email string, profile models.Profile) (models.User, error)
	// Authenticate verifies a username-or-email identifier and password.
	Authenticate(ctx context.Context, identifier, password string) (models.User, error)
}

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Generate(username string) (string, error)
}

// AuthHandler handles HTTP requests for user registration and login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Tokens issues the session tokens returned to clients.
	Tokens TokenIssuer
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Login            string `json:"login"`
	Password         string `json:"password"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	PhoneCountryCode string `json:"phone_country_code"`
	PhoneNumber      string `json:"phone_number"`
}

// LoginRequest represents the JSON payload for login. Login may be a
// username or an email address.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// userResponse is the public view of a user; it never carries the
// stored credential.
type userResponse struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
	}
}

// Register handles user registration requests. It expects a JSON body
// with non-empty "login", "password", and "email" fields, registers the
// user, and responds with the public profile and a session token so the
// new user is logged in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Login, req.Password, req.Email, models.Profile{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PhoneCountryCode: req.PhoneCountryCode,
		PhoneNumber:      req.PhoneNumber,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.Tokens.Generate(user.Username)
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user":  toUserResponse(user),
		"token": token,
	})
}

// Login handles login requests. It verifies the credentials and
// responds with the public profile and a fresh session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Login == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.AuthService.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.Tokens.Generate(user.Username)
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user":  toUserResponse(user),
		"token": token,
	})
}
