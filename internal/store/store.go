// Package store persists endpoint definitions in SQLite.
// It tracks the synthetic endpoints the service answers for: which verb and
// path they listen on and the canned response they return.
package store

import (
	"errors"
	"time"
)

// Sentinel errors surfaced by store operations.
var (
	// ErrNotFound is returned when no endpoint matches the given ID or route.
	ErrNotFound = errors.New("endpoint not found")

	// ErrDuplicateRoute is returned when a (verb, path) pair is already taken.
	ErrDuplicateRoute = errors.New("endpoint route already registered")
)

// Endpoint is a stored endpoint definition.
type Endpoint struct {
	ID        string
	Verb      string
	Path      string
	Code      int
	Headers   map[string]string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attributes holds the mutable fields of an endpoint.
type Attributes struct {
	Verb    string
	Path    string
	Code    int
	Headers map[string]string
	Body    string
}
