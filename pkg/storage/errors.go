package storage

import "errors"

// Backends wrap these so callers can classify failures with errors.Is.
var (
	ErrAlreadyExists = errors.New("the resource already exists")
	ErrNotFound      = errors.New("object not found")
	ErrUnauthorized  = errors.New("access denied")
)
