package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

// RecipeHandlers serves the recipe endpoints
type RecipeHandlers struct {
	store   catalog.Store
	metrics *observability.Metrics
}

// NewRecipeHandlers creates recipe handlers. metrics may be nil.
func NewRecipeHandlers(store catalog.Store, metrics *observability.Metrics) *RecipeHandlers {
	return &RecipeHandlers{store: store, metrics: metrics}
}

func (h *RecipeHandlers) list(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, catalog.RecipeFilter{})
}

func (h *RecipeHandlers) search(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, catalog.RecipeFilter{TitleContains: r.URL.Query().Get("q")})
}

func (h *RecipeHandlers) byCategory(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, catalog.RecipeFilter{Category: mux.Vars(r)["category"]})
}

func (h *RecipeHandlers) writePage(w http.ResponseWriter, r *http.Request, filter catalog.RecipeFilter) {
	req, ok := parsePageRequest(r)
	if !ok {
		httputil.WriteNotFoundError(w, msgInvalidPage)
		return
	}

	page, err := h.store.ListRecipes(r.Context(), filter, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !req.ValidFor(page.Count) {
		httputil.WriteNotFoundError(w, msgInvalidPage)
		return
	}

	_ = httputil.WriteSuccess(w, newPageResponse(r, req, page))
}

func (h *RecipeHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	recipe, err := h.store.GetRecipe(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, recipe)
}

// create handles POST /api/recipes/create/
func (h *RecipeHandlers) create(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateRecipeInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	recipe, err := h.store.CreateRecipe(r.Context(), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.metrics.RecipeCreated()
	observability.FromContext(r.Context()).WithFields(map[string]interface{}{
		"recipe_id": recipe.ID,
		"title":     recipe.Title,
	}).Info("recipe created")
	_ = httputil.WriteCreated(w, recipe)
}

func (h *RecipeHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteRecipe(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.RecipeDeleted()
	httputil.WriteNoContent(w)
}
