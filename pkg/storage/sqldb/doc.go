// Package sqldb stores the catalogue, accounts and revoked tokens in
// PostgreSQL (lib/pq) or SQLite (mattn/go-sqlite3) through database/sql.
//
// Queries use $n placeholders, RETURNING and ON CONFLICT DO NOTHING, which
// both engines accept, so one Store serves either driver. Case-insensitive
// name matching is LOWER(x) = LOWER($n) backed by unique expression indexes.
//
// The package also holds the storage-side helpers around the database: the
// Redis client and revocation mirror, the CachedStore decorator for recipe
// details, and the S3 uploader for catalogue snapshots.
package sqldb
