package storage

import "fmt"

// NotFoundError reports that a referenced entity does not resolve. Entity
// names which lookup failed ("task", "source section", ...), so handlers can
// surface it verbatim.
type NotFoundError struct {
	Entity string
}

func (e NotFoundError) Error() string {
	return e.Entity + " not found"
}

// NotFound marks the error as a not-found failure.
func (e NotFoundError) NotFound() {}

// ConflictError reports a state mismatch between the request and the stored
// entities, such as a move declaring a stale source section.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Reason)
}

// Conflict marks the error as a state-mismatch failure.
func (e ConflictError) Conflict() {}
