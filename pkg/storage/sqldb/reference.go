package sqldb

import (
	"context"
	"fmt"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
)

// ListCategories returns every category ordered by name
func (s *Store) ListCategories(ctx context.Context) (categories []catalog.Category, err error) {
	ctx, done := s.startOp(ctx, "list_categories")
	defer func() { done(err) }()

	return listCategories(ctx, s.db)
}

func listCategories(ctx context.Context, q querier) ([]catalog.Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []catalog.Category{}
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// DeleteCategory removes a category no recipe references
func (s *Store) DeleteCategory(ctx context.Context, id int64) (err error) {
	ctx, done := s.startOp(ctx, "delete_category")
	defer func() { done(err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return catalog.ErrProtected
		}
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	return requireAffected(res)
}

// ListSkillLevels returns every skill level ordered by id
func (s *Store) ListSkillLevels(ctx context.Context) (levels []catalog.SkillLevel, err error) {
	ctx, done := s.startOp(ctx, "list_skill_levels")
	defer func() { done(err) }()

	return listSkillLevels(ctx, s.db)
}

func listSkillLevels(ctx context.Context, q querier) ([]catalog.SkillLevel, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, level FROM skill_levels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list skill levels: %w", err)
	}
	defer rows.Close()

	levels := []catalog.SkillLevel{}
	for rows.Next() {
		var l catalog.SkillLevel
		if err := rows.Scan(&l.ID, &l.Level); err != nil {
			return nil, fmt.Errorf("failed to scan skill level: %w", err)
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// CreateSkillLevel inserts a skill level. ErrConflict when the label exists
// in any letter case.
func (s *Store) CreateSkillLevel(ctx context.Context, level string) (created *catalog.SkillLevel, err error) {
	ctx, done := s.startOp(ctx, "create_skill_level")
	defer func() { done(err) }()

	created = &catalog.SkillLevel{Level: level}
	err = s.db.QueryRowContext(ctx, `INSERT INTO skill_levels (level) VALUES ($1) RETURNING id`, level).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, catalog.ErrConflict
		}
		return nil, fmt.Errorf("failed to create skill level: %w", err)
	}
	return created, nil
}

// EnsureSkillLevel returns the skill level labelled level, creating it when missing
func (s *Store) EnsureSkillLevel(ctx context.Context, level string) (result *catalog.SkillLevel, err error) {
	ctx, done := s.startOp(ctx, "ensure_skill_level")
	defer func() { done(err) }()

	id, err := getOrCreateByName(ctx, s.db, "skill_levels", "level", level)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure skill level %q: %w", level, err)
	}

	result = &catalog.SkillLevel{ID: id}
	if err := s.db.QueryRowContext(ctx, `SELECT level FROM skill_levels WHERE id = $1`, id).Scan(&result.Level); err != nil {
		return nil, fmt.Errorf("failed to load skill level %d: %w", id, err)
	}
	return result, nil
}

// DeleteSkillLevel removes a skill level; recipes using it keep a NULL level
func (s *Store) DeleteSkillLevel(ctx context.Context, id int64) (err error) {
	ctx, done := s.startOp(ctx, "delete_skill_level")
	defer func() { done(err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM skill_levels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete skill level %d: %w", id, err)
	}
	return requireAffected(res)
}
