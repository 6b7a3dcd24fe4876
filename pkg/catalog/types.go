package catalog

import (
	"time"
)

// SkillLevel is a difficulty label such as "low" or "high"
type SkillLevel struct {
	ID    int64  `json:"id"`
	Level string `json:"level"`
}

// Category groups recipes. Names are unique.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Ingredient is shared between recipes
type Ingredient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Instruction is one step of a recipe
type Instruction struct {
	ID         int64  `json:"id"`
	StepNumber int    `json:"step_number"`
	Content    string `json:"content"`
}

// RecipeIngredient links an ingredient to a recipe with a free-text quantity
type RecipeIngredient struct {
	ID         int64      `json:"id"`
	Ingredient Ingredient `json:"ingredient"`
	Quantity   string     `json:"quantity"`
}

// RecipeSummary is the list representation of a recipe
type RecipeSummary struct {
	ID                  int64       `json:"id"`
	Title               string      `json:"title"`
	PreparationDuration int         `json:"preparation_duration"`
	Servings            *int        `json:"servings"`
	Category            *Category   `json:"category"`
	SkillLevel          *SkillLevel `json:"skill_level"`
	CreatedAt           time.Time   `json:"created_at"`
}

// RecipeDetail is a recipe with its description, ingredients and ordered steps
type RecipeDetail struct {
	RecipeSummary
	Description       string             `json:"description"`
	Instructions      []Instruction      `json:"instructions"`
	RecipeIngredients []RecipeIngredient `json:"recipe_ingredients"`
}

// RecipeFilter narrows a recipe listing. Zero value lists everything.
type RecipeFilter struct {
	// Category matches the category name case-insensitively
	Category string
	// TitleContains matches a case-insensitive substring of the title
	TitleContains string
}

// MatchCandidate is the projection of a recipe used for ingredient matching
type MatchCandidate struct {
	ID          int64
	Title       string
	Category    string
	Ingredients []string
	CreatedAt   time.Time
}

// Snapshot is a point-in-time export of the whole catalogue
type Snapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Categories  []Category     `json:"categories"`
	SkillLevels []SkillLevel   `json:"skill_levels"`
	Recipes     []RecipeDetail `json:"recipes"`
}
