package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/validation"
)

const summaryColumns = `
	r.id, r.title, r.preparation_duration, r.servings, r.created_at,
	c.id, c.name, s.id, s.level`

const summaryJoins = `
	FROM recipes r
	LEFT JOIN categories c ON c.id = r.category_id
	LEFT JOIN skill_levels s ON s.id = r.skill_level_id`

const newestFirst = ` ORDER BY r.created_at DESC, r.id DESC`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row rowScanner, extra ...interface{}) (catalog.RecipeSummary, error) {
	var (
		r          catalog.RecipeSummary
		servings   sql.NullInt64
		catID      sql.NullInt64
		catName    sql.NullString
		skillID    sql.NullInt64
		skillLevel sql.NullString
	)
	dest := []interface{}{
		&r.ID, &r.Title, &r.PreparationDuration, &servings, &r.CreatedAt,
		&catID, &catName, &skillID, &skillLevel,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return r, err
	}
	if servings.Valid {
		n := int(servings.Int64)
		r.Servings = &n
	}
	if catID.Valid {
		r.Category = &catalog.Category{ID: catID.Int64, Name: catName.String}
	}
	if skillID.Valid {
		r.SkillLevel = &catalog.SkillLevel{ID: skillID.Int64, Level: skillLevel.String}
	}
	return r, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func filterClause(filter catalog.RecipeFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("LOWER(c.name) = LOWER($%d)", len(args)))
	}
	if filter.TitleContains != "" {
		args = append(args, "%"+escapeLike(filter.TitleContains)+"%")
		conds = append(conds, fmt.Sprintf(`LOWER(r.title) LIKE LOWER($%d) ESCAPE '\'`, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListRecipes returns one page of recipes, newest first
func (s *Store) ListRecipes(ctx context.Context, filter catalog.RecipeFilter, page catalog.PageRequest) (result *catalog.Page, err error) {
	ctx, done := s.startOp(ctx, "list_recipes")
	defer func() { done(err) }()

	where, args := filterClause(filter)

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*)"+summaryJoins+where, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	result = &catalog.Page{Count: count, Results: []catalog.RecipeSummary{}}
	if count == 0 || !page.ValidFor(count) {
		return result, nil
	}

	query := "SELECT" + summaryColumns + summaryJoins + where + newestFirst +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, page.Limit(), page.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		result.Results = append(result.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return result, nil
}

// GetRecipe returns a recipe with its ingredients and ordered instructions
func (s *Store) GetRecipe(ctx context.Context, id int64) (detail *catalog.RecipeDetail, err error) {
	ctx, done := s.startOp(ctx, "get_recipe")
	defer func() { done(err) }()

	return getRecipe(ctx, s.db, id)
}

func getRecipe(ctx context.Context, q querier, id int64) (*catalog.RecipeDetail, error) {
	row := q.QueryRowContext(ctx, "SELECT"+summaryColumns+", r.description"+summaryJoins+" WHERE r.id = $1", id)

	detail := &catalog.RecipeDetail{}
	summary, err := scanSummary(row, &detail.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe %d: %w", id, err)
	}
	detail.RecipeSummary = summary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		steps, err := loadInstructions(gctx, q, id)
		detail.Instructions = steps[id]
		return err
	})
	g.Go(func() error {
		lines, err := loadRecipeIngredients(gctx, q, id)
		detail.RecipeIngredients = lines[id]
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if detail.Instructions == nil {
		detail.Instructions = []catalog.Instruction{}
	}
	if detail.RecipeIngredients == nil {
		detail.RecipeIngredients = []catalog.RecipeIngredient{}
	}
	return detail, nil
}

// loadInstructions returns steps keyed by recipe, for one recipe or all
// when recipeID is 0
func loadInstructions(ctx context.Context, q querier, recipeID int64) (map[int64][]catalog.Instruction, error) {
	query := `SELECT recipe_id, id, step_number, content FROM instructions`
	var args []interface{}
	if recipeID != 0 {
		query += ` WHERE recipe_id = $1`
		args = append(args, recipeID)
	}
	query += ` ORDER BY recipe_id, step_number, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load instructions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]catalog.Instruction)
	for rows.Next() {
		var (
			rid  int64
			step catalog.Instruction
		)
		if err := rows.Scan(&rid, &step.ID, &step.StepNumber, &step.Content); err != nil {
			return nil, fmt.Errorf("failed to scan instruction: %w", err)
		}
		out[rid] = append(out[rid], step)
	}
	return out, rows.Err()
}

// loadRecipeIngredients returns ingredient lines keyed by recipe, for one
// recipe or all when recipeID is 0
func loadRecipeIngredients(ctx context.Context, q querier, recipeID int64) (map[int64][]catalog.RecipeIngredient, error) {
	query := `SELECT ri.recipe_id, ri.id, ri.quantity, i.id, i.name
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id`
	var args []interface{}
	if recipeID != 0 {
		query += ` WHERE ri.recipe_id = $1`
		args = append(args, recipeID)
	}
	query += ` ORDER BY ri.recipe_id, ri.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]catalog.RecipeIngredient)
	for rows.Next() {
		var (
			rid  int64
			line catalog.RecipeIngredient
		)
		if err := rows.Scan(&rid, &line.ID, &line.Quantity, &line.Ingredient.ID, &line.Ingredient.Name); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		out[rid] = append(out[rid], line)
	}
	return out, rows.Err()
}

// CreateRecipe inserts the recipe, its category, ingredients and steps in
// a single transaction
func (s *Store) CreateRecipe(ctx context.Context, in *catalog.CreateRecipeInput) (detail *catalog.RecipeDetail, err error) {
	ctx, done := s.startOp(ctx, "create_recipe")
	defer func() { done(err) }()

	var recipeID int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if in.SkillLevelID != nil {
			var exists int64
			err := tx.QueryRowContext(ctx, `SELECT id FROM skill_levels WHERE id = $1`, *in.SkillLevelID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return validation.NewFieldError("skill_level_id", catalog.InvalidPKMessage(*in.SkillLevelID))
			}
			if err != nil {
				return fmt.Errorf("failed to check skill level: %w", err)
			}
		}

		var categoryID sql.NullInt64
		if in.Category != nil {
			id, err := getOrCreateByName(ctx, tx, "categories", "name", *in.Category)
			if err != nil {
				return fmt.Errorf("failed to resolve category: %w", err)
			}
			categoryID = sql.NullInt64{Int64: id, Valid: true}
		}

		var servings sql.NullInt64
		if in.Servings != nil {
			servings = sql.NullInt64{Int64: int64(*in.Servings), Valid: true}
		}
		var skillLevelID sql.NullInt64
		if in.SkillLevelID != nil {
			skillLevelID = sql.NullInt64{Int64: *in.SkillLevelID, Valid: true}
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO recipes (title, category_id, description, preparation_duration, servings, skill_level_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			in.Title, categoryID, *in.Description, *in.PreparationDuration, servings, skillLevelID, s.timestamp(),
		).Scan(&recipeID)
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}

		resolved := make(map[string]int64)
		for _, ing := range in.Ingredients {
			key := validation.NameKey(ing.Name)
			ingredientID, ok := resolved[key]
			if !ok {
				ingredientID, err = getOrCreateByName(ctx, tx, "ingredients", "name", ing.Name)
				if err != nil {
					return fmt.Errorf("failed to resolve ingredient %q: %w", ing.Name, err)
				}
				resolved[key] = ingredientID
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity) VALUES ($1, $2, $3)`,
				recipeID, ingredientID, ing.Quantity); err != nil {
				return fmt.Errorf("failed to insert recipe ingredient: %w", err)
			}
		}

		for _, step := range in.Instructions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO instructions (recipe_id, step_number, content) VALUES ($1, $2, $3)`,
				recipeID, *step.StepNumber, step.Content); err != nil {
				return fmt.Errorf("failed to insert instruction: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return getRecipe(ctx, s.db, recipeID)
}

// getOrCreateByName returns the id of the row whose column equals name
// case-insensitively, inserting it when absent. The first spelling wins.
func getOrCreateByName(ctx context.Context, q querier, table, column, name string) (int64, error) {
	selectQuery := fmt.Sprintf(`SELECT id FROM %s WHERE LOWER(%s) = LOWER($1) ORDER BY id LIMIT 1`, table, column)

	var id int64
	err := q.QueryRowContext(ctx, selectQuery, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1) ON CONFLICT DO NOTHING RETURNING id`, table, column)
	err = q.QueryRowContext(ctx, insertQuery, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// A concurrent writer created it first
		err = q.QueryRowContext(ctx, selectQuery, name).Scan(&id)
	}
	return id, err
}

// DeleteRecipe removes a recipe; its steps and ingredient lines cascade
func (s *Store) DeleteRecipe(ctx context.Context, id int64) (err error) {
	ctx, done := s.startOp(ctx, "delete_recipe")
	defer func() { done(err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// MatchCandidates returns every recipe with its ingredient names, newest first
func (s *Store) MatchCandidates(ctx context.Context) (candidates []catalog.MatchCandidate, err error) {
	ctx, done := s.startOp(ctx, "match_candidates")
	defer func() { done(err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.title, r.created_at, c.name, i.name
		FROM recipes r
		LEFT JOIN categories c ON c.id = r.category_id
		LEFT JOIN recipe_ingredients ri ON ri.recipe_id = r.id
		LEFT JOIN ingredients i ON i.id = ri.ingredient_id
		ORDER BY r.created_at DESC, r.id DESC, ri.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load match candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c          catalog.MatchCandidate
			category   sql.NullString
			ingredient sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &category, &ingredient); err != nil {
			return nil, fmt.Errorf("failed to scan match candidate: %w", err)
		}
		if n := len(candidates); n == 0 || candidates[n-1].ID != c.ID {
			c.Category = category.String
			candidates = append(candidates, c)
		}
		if ingredient.Valid {
			last := &candidates[len(candidates)-1]
			last.Ingredients = append(last.Ingredients, ingredient.String)
		}
	}
	return candidates, rows.Err()
}

// Snapshot exports the full catalogue
func (s *Store) Snapshot(ctx context.Context) (snap *catalog.Snapshot, err error) {
	ctx, done := s.startOp(ctx, "snapshot")
	defer func() { done(err) }()

	snap = &catalog.Snapshot{GeneratedAt: s.timestamp()}

	if snap.Categories, err = listCategories(ctx, s.db); err != nil {
		return nil, err
	}
	if snap.SkillLevels, err = listSkillLevels(ctx, s.db); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT"+summaryColumns+", r.description"+summaryJoins+newestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to export recipes: %w", err)
	}
	for rows.Next() {
		var d catalog.RecipeDetail
		summary, err := scanSummary(rows, &d.Description)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		d.RecipeSummary = summary
		snap.Recipes = append(snap.Recipes, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	steps, err := loadInstructions(ctx, s.db, 0)
	if err != nil {
		return nil, err
	}
	lines, err := loadRecipeIngredients(ctx, s.db, 0)
	if err != nil {
		return nil, err
	}
	for i := range snap.Recipes {
		id := snap.Recipes[i].ID
		snap.Recipes[i].Instructions = steps[id]
		snap.Recipes[i].RecipeIngredients = lines[id]
		if snap.Recipes[i].Instructions == nil {
			snap.Recipes[i].Instructions = []catalog.Instruction{}
		}
		if snap.Recipes[i].RecipeIngredients == nil {
			snap.Recipes[i].RecipeIngredients = []catalog.RecipeIngredient{}
		}
	}
	return snap, nil
}
