//go:build integration

package sqldb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
)

func setupPostgresStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("spice_test"),
		postgres.WithUsername("spice"),
		postgres.WithPassword("spice_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := storage.DefaultConfig()
	cfg.Driver = storage.DriverPostgres
	cfg.DatabaseURL = connStr

	s, err := Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Migrate(ctx)
	require.NoError(t, err)
	return s
}

func TestPostgres_CatalogueRoundTrip(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()

	level, err := s.EnsureSkillLevel(ctx, "low")
	require.NoError(t, err)

	in := recipeInput("Tomato Soup", "Dinner", "Tomato", "tomato", "Basil")
	in.SkillLevelID = &level.ID
	soup, err := s.CreateRecipe(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, soup.RecipeIngredients[0].Ingredient.ID, soup.RecipeIngredients[1].Ingredient.ID)

	stew, err := s.CreateRecipe(ctx, recipeInput("Beef Stew", "DINNER", "Beef"))
	require.NoError(t, err)
	assert.Equal(t, soup.Category.ID, stew.Category.ID)

	page, err := s.ListRecipes(ctx, catalog.RecipeFilter{Category: "dinner", TitleContains: "SOUP"}, catalog.NewPageRequest(1, 10))
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, "Tomato Soup", page.Results[0].Title)

	assert.ErrorIs(t, s.DeleteCategory(ctx, soup.Category.ID), catalog.ErrProtected)

	_, err = s.CreateSkillLevel(ctx, "LOW")
	assert.ErrorIs(t, err, catalog.ErrConflict)

	require.NoError(t, s.DeleteSkillLevel(ctx, level.ID))
	got, err := s.GetRecipe(ctx, soup.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SkillLevel)

	candidates, err := s.MatchCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}
