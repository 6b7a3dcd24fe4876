package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
)

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "alice")
	soup := env.seedRecipe(t, "Tomato Soup", "Dinner")
	env.seedRecipe(t, "Pancakes", "Breakfast")

	w := env.do(t, http.MethodGet, "/api/categories/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var categories []catalog.Category
	decode(t, w, &categories)
	require.Len(t, categories, 2)
	assert.Equal(t, "Breakfast", categories[0].Name)
	assert.Equal(t, "Dinner", categories[1].Name)

	path := fmt.Sprintf("/api/categories/%d/", soup.Category.ID)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodDelete, path, nil, "").Code)

	w = env.do(t, http.MethodDelete, path, nil, session.Access)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, errorBody(t, w)["error"], "still referenced")

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, fmt.Sprintf("/api/recipes/%d/", soup.ID), nil, session.Access).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, path, nil, session.Access).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, nil, session.Access).Code)
}

func TestCategories_Empty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/categories/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestSkillLevels(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "alice")

	w := env.do(t, http.MethodPost, "/api/skill-levels/", map[string]string{"level": "low"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for _, level := range []string{"low", "  medium  "} {
		w = env.do(t, http.MethodPost, "/api/skill-levels/", map[string]string{"level": level}, session.Access)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/skill-levels/", map[string]string{"level": ""}, session.Access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w)["details"], "level")

	w = env.do(t, http.MethodGet, "/api/skill-levels/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var levels []catalog.SkillLevel
	decode(t, w, &levels)
	require.Len(t, levels, 2)
	assert.Equal(t, "low", levels[0].Level)
	assert.Equal(t, "medium", levels[1].Level)

	// a recipe may reference a level by id
	body := validRecipeBody()
	body["skill_level_id"] = levels[1].ID
	w = env.do(t, http.MethodPost, "/api/recipes/create/", body, session.Access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var recipe catalog.RecipeDetail
	decode(t, w, &recipe)
	require.NotNil(t, recipe.SkillLevel)
	assert.Equal(t, "medium", recipe.SkillLevel.Level)
}
