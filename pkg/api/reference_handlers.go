package api

import (
	"net/http"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
)

// ReferenceHandlers serves categories and skill levels
type ReferenceHandlers struct {
	store catalog.Store
}

// NewReferenceHandlers creates reference data handlers
func NewReferenceHandlers(store catalog.Store) *ReferenceHandlers {
	return &ReferenceHandlers{store: store}
}

func (h *ReferenceHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []catalog.Category{}
	}
	_ = httputil.WriteSuccess(w, categories)
}

func (h *ReferenceHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *ReferenceHandlers) listSkillLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.store.ListSkillLevels(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if levels == nil {
		levels = []catalog.SkillLevel{}
	}
	_ = httputil.WriteSuccess(w, levels)
}

func (h *ReferenceHandlers) createSkillLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level string `json:"level"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	level, err := catalog.ValidateSkillLevel(req.Level)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.store.CreateSkillLevel(r.Context(), level)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteCreated(w, created)
}
