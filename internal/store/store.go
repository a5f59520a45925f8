// Package store holds the persistence boundary: one small repository
// interface per entity, with gorm-backed implementations. Services depend on
// the interfaces only.
package store

import "errors"

// Failure modes the service layer branches on.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)
