// Package uuid wraps the google/uuid package so the rest of the codebase
// has a single import path for identifier handling.
package uuid

import "github.com/google/uuid"

// UUID is a 128 bit (16 byte) Universal Unique IDentifier as defined in
// RFC 4122.
type UUID = uuid.UUID

// Nil is the zero value UUID.
var Nil = uuid.Nil

// New creates a new random UUID or panics.
func New() UUID { return uuid.New() }

// Parse decodes s into a UUID or returns an error.
func Parse(s string) (UUID, error) { return uuid.Parse(s) }

// MustParse is like Parse but panics if the string cannot be parsed.
func MustParse(s string) UUID { return uuid.MustParse(s) }
