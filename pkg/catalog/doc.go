// Package catalog defines the recipe catalogue domain: the entities and their
// JSON shapes, create-input validation, paging arithmetic, the Store
// interface implemented by pkg/storage/sqldb, and the sentinel errors that
// handlers translate into HTTP statuses.
package catalog
