package service

import (
	"errors"

	"taskboard/internal/auth"
	"taskboard/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = auth.ErrInvalidCredentials
	// ErrUserAlreadyExists is returned when attempting to register with an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrForbidden is returned when the caller may not modify the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the resource does not exist.
	ErrNotFound = repository.ErrNotFound
	// ErrExportsDisabled is returned when no object storage is configured.
	ErrExportsDisabled = errors.New("project exports are not configured")
)
