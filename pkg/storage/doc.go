// Package storage holds backend configuration shared by the persistence layer.
//
// # Overview
//
// The relational store lives in pkg/storage/sqldb and runs on either SQLite
// (development, tests) or PostgreSQL (production). Redis is optional and backs
// the second cache level, token revocation mirroring and distributed rate
// limiting. S3 is optional and receives catalogue snapshots.
//
// # Configuration
//
//	SPICE_DB_DRIVER="postgres"            # sqlite or postgres
//	SPICE_DB_URL="postgres://localhost/spice?sslmode=disable"
//	SPICE_DB_MAX_CONNS="20"
//	SPICE_REDIS_URL="redis://localhost:6379/0"
//	SPICE_CACHE_TTL="10m"
//	SPICE_S3_BUCKET="spice-snapshots"
//
// # Related Packages
//
//   - pkg/storage/sqldb: database/sql implementation of catalog.Store
//   - pkg/config: loads Config from the environment
package storage
