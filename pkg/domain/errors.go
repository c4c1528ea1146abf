package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidContext is returned when a conversation context violates its invariants.
var ErrInvalidContext = errors.New("invalid conversation context")
