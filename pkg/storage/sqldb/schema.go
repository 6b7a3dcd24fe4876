package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
)

// migration is one schema version. {{pk}} expands to the dialect's
// auto-increment primary key column type.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "catalogue",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS skill_levels (
				id {{pk}},
				level VARCHAR(50) NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS skill_levels_level_lower ON skill_levels (LOWER(level))`,
			`CREATE TABLE IF NOT EXISTS categories (
				id {{pk}},
				name VARCHAR(255) NOT NULL UNIQUE
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS categories_name_lower ON categories (LOWER(name))`,
			`CREATE TABLE IF NOT EXISTS ingredients (
				id {{pk}},
				name VARCHAR(200) NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS ingredients_name_lower ON ingredients (LOWER(name))`,
			`CREATE TABLE IF NOT EXISTS recipes (
				id {{pk}},
				title VARCHAR(500) NOT NULL,
				category_id BIGINT NULL REFERENCES categories(id) ON DELETE RESTRICT,
				description TEXT NOT NULL,
				preparation_duration INTEGER NOT NULL CHECK (preparation_duration >= 0),
				servings INTEGER NULL CHECK (servings IS NULL OR servings >= 1),
				skill_level_id BIGINT NULL REFERENCES skill_levels(id) ON DELETE SET NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS recipes_created_at ON recipes (created_at DESC, id DESC)`,
			`CREATE INDEX IF NOT EXISTS recipes_category_id ON recipes (category_id)`,
			`CREATE TABLE IF NOT EXISTS instructions (
				id {{pk}},
				recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				step_number INTEGER NOT NULL,
				content TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS instructions_recipe_id ON instructions (recipe_id, step_number)`,
			`CREATE TABLE IF NOT EXISTS recipe_ingredients (
				id {{pk}},
				recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				ingredient_id BIGINT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
				quantity VARCHAR(200) NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS recipe_ingredients_recipe_id ON recipe_ingredients (recipe_id)`,
		},
	},
	{
		version: 2,
		name:    "accounts",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id {{pk}},
				username VARCHAR(150) NOT NULL UNIQUE,
				email VARCHAR(254) NOT NULL DEFAULT '',
				first_name VARCHAR(150) NOT NULL DEFAULT '',
				last_name VARCHAR(150) NOT NULL DEFAULT '',
				password_hash VARCHAR(255) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				date_joined TIMESTAMP NOT NULL,
				last_login TIMESTAMP NULL
			)`,
			`CREATE TABLE IF NOT EXISTS revoked_tokens (
				jti VARCHAR(64) PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				expires_at TIMESTAMP NOT NULL,
				revoked_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS revoked_tokens_expires_at ON revoked_tokens (expires_at)`,
		},
	},
}

func (s *Store) expand(stmt string) string {
	pk := "BIGSERIAL PRIMARY KEY"
	if s.driver == storage.DriverSQLite {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return strings.ReplaceAll(stmt, "{{pk}}", pk)
}

// Migrate applies every migration newer than the recorded schema version
// and returns the number applied
func (s *Store) Migrate(ctx context.Context) (applied int, err error) {
	ctx, done := s.startOp(ctx, "migrate")
	defer func() { done(err) }()

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		applied_at TIMESTAMP NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return 0, err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, s.expand(stmt)); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES ($1, $2, $3)`,
				m.version, m.name, s.timestamp())
			return err
		})
		if err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// SchemaVersion returns the highest applied migration, 0 for an empty database
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}
