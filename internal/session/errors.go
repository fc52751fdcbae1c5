package session

import "errors"

var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidRole indicates a turn role outside "user" | "assistant".
	ErrInvalidRole = errors.New("invalid turn role")
)
