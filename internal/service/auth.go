// Package service provides the marketplace business logic, delegating
// persistence to the repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/lotmarket/internal/common"
	"github.com/atinyakov/lotmarket/internal/models"
)

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// Register inserts a new user, enforcing username and email
	// uniqueness atomically.
	Register(ctx context.Context, user models.User) error
	// Find returns the user with the given username.
	Find(ctx context.Context, username string) (models.User, error)
	// FindByEmail returns the user registered with the given email.
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// AuthService implements registration and credential verification on
// top of a UserRepository. Only salted bcrypt hashes of passwords are
// stored; authentication compares hashes, never raw secrets.
type AuthService struct {
	repo UserRepository
}

// NewAuthService constructs an AuthService using the provided
// repository.
func NewAuthService(repo UserRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Register validates the registration input, hashes the password, and
// stores the new user. Duplicate usernames and emails surface as
// common.ErrDuplicateUsername / common.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, username, password, email string, profile models.Profile) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return models.User{}, fmt.Errorf("%w: username is required", common.ErrValidation)
	}
	if password == "" {
		return models.User{}, fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	if email == "" {
		return models.User{}, fmt.Errorf("%w: email is required", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		FirstName:    strings.TrimSpace(profile.FirstName),
		LastName:     strings.TrimSpace(profile.LastName),
		PhoneNumber:  composePhone(profile.PhoneCountryCode, profile.PhoneNumber),
	}
	if err := s.repo.Register(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// AuthenticateByUsername verifies the password for the named user.
// Unknown users and wrong passwords both yield
// common.ErrInvalidCredentials.
func (s *AuthService) AuthenticateByUsername(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.repo.Find(ctx, username)
	return s.checkPassword(user, password, err)
}

// AuthenticateByEmail verifies the password for the user registered
// with the given email address.
func (s *AuthService) AuthenticateByEmail(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	return s.checkPassword(user, password, err)
}

// Authenticate verifies the password for the user matching the
// identifier, which may be either a username or an email address.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return s.AuthenticateByEmail(ctx, identifier, password)
	}
	return s.AuthenticateByUsername(ctx, identifier, password)
}

func (s *AuthService) checkPassword(user models.User, password string, lookupErr error) (models.User, error) {
	if lookupErr != nil {
		if errors.Is(lookupErr, common.ErrNotFound) {
			return models.User{}, common.ErrInvalidCredentials
		}
		return models.User{}, lookupErr
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, common.ErrInvalidCredentials
	}
	return user, nil
}

func composePhone(countryCode, local string) string {
	countryCode = strings.TrimSpace(countryCode)
	local = strings.TrimSpace(local)
	if countryCode == "" {
		return local
	}
	return countryCode + local
}
