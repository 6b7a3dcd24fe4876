package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/aimatch"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/auth"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage/sqldb"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	server  *Server
	db      *sqldb.Store
	store   *sqldb.CachedStore
	metrics *observability.Metrics
}

// newTestEnv serves the API over an in-memory SQLite catalogue. opts may
// adjust the server options before it is built.
func newTestEnv(t *testing.T, opts ...func(*Options, *testEnv)) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg := storage.DefaultConfig()
	cfg.DatabaseURL = ":memory:?_foreign_keys=on"
	db, err := sqldb.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	env := &testEnv{
		db:      db,
		store:   sqldb.NewCachedStore(db, 64, time.Minute, nil, nil),
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
	}

	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:     testSecret,
		Issuer:     "mypocketspice",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	options := Options{
		Store:   env.store,
		Auth:    auth.NewService(db, db, tokens, nil, env.metrics),
		Matcher: aimatch.NewMatcher(env.store, nil, aimatch.Options{Models: []string{"gemini-2.0-flash"}, CacheTTL: time.Minute}, env.metrics, nil),
		Metrics: env.metrics,
	}
	for _, opt := range opts {
		opt(&options, env)
	}

	env.server = NewServer(options)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

// register creates a user through the API and returns its session
func (e *testEnv) register(t *testing.T, username string) auth.Session {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register/", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "password123",
		"password_confirm": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session auth.Session
	decode(t, w, &session)
	return session
}

func (e *testEnv) seedRecipe(t *testing.T, title, category string, ingredients ...string) *catalog.RecipeDetail {
	t.Helper()
	desc := "A recipe."
	prep := 20
	in := &catalog.CreateRecipeInput{
		Title:               title,
		Description:         &desc,
		PreparationDuration: &prep,
		Instructions:        []catalog.InstructionInput{{Content: "Cook it."}},
	}
	if category != "" {
		in.Category = &category
	}
	for _, name := range ingredients {
		in.Ingredients = append(in.Ingredients, catalog.IngredientInput{Name: name, Quantity: "1"})
	}
	in.Normalize()

	recipe, err := e.store.CreateRecipe(context.Background(), in)
	require.NoError(t, err)
	return recipe
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	decode(t, w, &body)
	return body
}
