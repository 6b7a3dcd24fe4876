package catalog

import (
	"context"
)

// Store persists the catalogue
type Store interface {
	// ListRecipes returns one page of recipes, newest first, and the total
	// number of recipes matching filter
	ListRecipes(ctx context.Context, filter RecipeFilter, page PageRequest) (*Page, error)
	// GetRecipe returns ErrNotFound when the recipe does not exist
	GetRecipe(ctx context.Context, id int64) (*RecipeDetail, error)
	// CreateRecipe writes the recipe and its relations in one transaction,
	// get-or-creating the category and ingredients by case-insensitive name
	CreateRecipe(ctx context.Context, in *CreateRecipeInput) (*RecipeDetail, error)
	DeleteRecipe(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]Category, error)
	// DeleteCategory returns ErrProtected while recipes reference the category
	DeleteCategory(ctx context.Context, id int64) error

	ListSkillLevels(ctx context.Context) ([]SkillLevel, error)
	CreateSkillLevel(ctx context.Context, level string) (*SkillLevel, error)
	// EnsureSkillLevel returns the skill level with the given label,
	// creating it when missing
	EnsureSkillLevel(ctx context.Context, level string) (*SkillLevel, error)
	DeleteSkillLevel(ctx context.Context, id int64) error

	// MatchCandidates returns every recipe with its ingredient names
	MatchCandidates(ctx context.Context) ([]MatchCandidate, error)
	Snapshot(ctx context.Context) (*Snapshot, error)
}
