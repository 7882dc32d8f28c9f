// Package common defines shared sentinel errors used across the
// repository, service, and handler layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound     = errors.New("not found")
	ErrNotOwner     = errors.New("not the owner")
	ErrCorruptStore = errors.New("corrupt store")

	// Registration errors.
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")

	// Authentication errors.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Image ingestion errors.
	ErrUnsupportedExtension = errors.New("unsupported image extension")
	ErrContentMismatch      = errors.New("file content is not a recognized image")

	// Input validation.
	ErrValidation = errors.New("validation failed")
)
