package store

import "errors"

// ErrNotFound is returned when a record or user does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique key is already taken.
var ErrConflict = errors.New("already exists")
