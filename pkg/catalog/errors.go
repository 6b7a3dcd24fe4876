package catalog

import "errors"

var (
	// ErrNotFound is returned when a recipe, category or skill level does not exist
	ErrNotFound = errors.New("not found")
	// ErrProtected is returned when deleting a row that recipes still reference
	ErrProtected = errors.New("still referenced by existing recipes")
	// ErrConflict is returned when a unique constraint is violated
	ErrConflict = errors.New("already exists")
)
