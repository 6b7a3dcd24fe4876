package sqldb

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/auth"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, *observability.Metrics) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	s := New(db, storage.DriverPostgres)
	s.SetMetrics(metrics)
	return s, mock, metrics
}

func TestGetOrCreateByName_ConcurrentInsert(t *testing.T) {
	s, mock, _ := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM categories WHERE LOWER(name) = LOWER($1)")).
		WithArgs("Dinner").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO categories (name) VALUES ($1) ON CONFLICT DO NOTHING RETURNING id")).
		WithArgs("Dinner").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM categories WHERE LOWER(name) = LOWER($1)")).
		WithArgs("Dinner").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := getOrCreateByName(context.Background(), s.db, "categories", "name", "Dinner")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecipe_RollsBackOnFailure(t *testing.T) {
	s, mock, metrics := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM categories").
		WithArgs("Dinner").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery("INSERT INTO recipes").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.CreateRecipe(context.Background(), recipeInput("Soup", "Dinner"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert recipe")
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StorageErrorsTotal.WithLabelValues("create_recipe")))
}

func TestStore_ConstraintErrors(t *testing.T) {
	t.Run("referenced category is protected", func(t *testing.T) {
		s, mock, metrics := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = $1")).
			WithArgs(int64(5)).
			WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

		err := s.DeleteCategory(context.Background(), 5)
		assert.ErrorIs(t, err, catalog.ErrProtected)
		assert.Zero(t, testutil.ToFloat64(metrics.StorageErrorsTotal.WithLabelValues("delete_category")),
			"domain outcomes are not storage errors")
	})

	t.Run("duplicate skill level", func(t *testing.T) {
		s, mock, _ := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO skill_levels (level) VALUES ($1) RETURNING id")).
			WithArgs("low").
			WillReturnError(&pq.Error{Code: pqUniqueViolation})

		_, err := s.CreateSkillLevel(context.Background(), "low")
		assert.ErrorIs(t, err, catalog.ErrConflict)
	})

	t.Run("duplicate username", func(t *testing.T) {
		s, mock, _ := newMockStore(t)
		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pq.Error{Code: pqUniqueViolation})

		err := s.CreateUser(context.Background(), &auth.User{Username: "chef", PasswordHash: "x", IsActive: true})
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		s, mock, _ := newMockStore(t)
		mock.ExpectExec("DELETE FROM categories").
			WillReturnError(&pq.Error{Code: "57014"})

		err := s.DeleteCategory(context.Background(), 5)
		require.Error(t, err)
		assert.NotErrorIs(t, err, catalog.ErrProtected)
		assert.Contains(t, err.Error(), "failed to delete category 5")
	})
}

func TestListRecipes_CountFailure(t *testing.T) {
	s, mock, metrics := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnError(errors.New("connection reset"))

	_, err := s.ListRecipes(context.Background(), catalog.RecipeFilter{}, catalog.NewPageRequest(1, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count recipes")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StorageErrorsTotal.WithLabelValues("list_recipes")))
}

func TestListRecipes_PlaceholderOrder(t *testing.T) {
	s, mock, _ := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("dinner", `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := s.ListRecipes(context.Background(),
		catalog.RecipeFilter{Category: "dinner", TitleContains: "50%"},
		catalog.NewPageRequest(1, 10))
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.NotNil(t, page.Results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecipes_PageBeyondEndSkipsQuery(t *testing.T) {
	s, mock, _ := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	page, err := s.ListRecipes(context.Background(), catalog.RecipeFilter{},
		catalog.NewPageRequest(100000000000000000, 100))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.Empty(t, page.Results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"soup", "soup"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLike(tt.in))
		})
	}
}
