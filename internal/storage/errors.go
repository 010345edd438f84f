package storage

import (
	"errors"
)

var (
	// ErrNotFound signals a point lookup or download miss.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists signals a duplicate (owner, filename) on file create.
	ErrAlreadyExists = errors.New("file with the same name exists")
	// ErrConflict signals a duplicate username or email on user create.
	ErrConflict = errors.New("username or email already in use")
)

// uniqueViolation is the PostgreSQL error code raised when an insert
// breaks a unique index. Both stores treat it as the conflict signal
// instead of doing a racy read-before-write.
const uniqueViolation = "23505"
