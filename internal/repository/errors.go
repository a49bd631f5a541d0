package repository

import "errors"

var (
	// ErrDuplicateUsername is returned by UserRepo.Create when the username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidUser is returned when a required user field is empty.
	ErrInvalidUser = errors.New("username and password hash are required")
)
