package api

import (
	"errors"
	"net/http"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/aimatch"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

// MatchHandlers serves ingredient matching
type MatchHandlers struct {
	matcher *aimatch.Matcher
}

// NewMatchHandlers creates match handlers
func NewMatchHandlers(matcher *aimatch.Matcher) *MatchHandlers {
	return &MatchHandlers{matcher: matcher}
}

type matchRequest struct {
	Ingredients string `json:"ingredients"`
}

// aiMatch handles POST /api/recipes/ai-match/
func (h *MatchHandlers) aiMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := h.matcher.Match(r.Context(), req.Ingredients)
	switch {
	case err == nil:
		_ = httputil.WriteSuccess(w, result)
	case errors.Is(err, aimatch.ErrNoIngredients):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, aimatch.ErrNoRecipes):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.Is(err, aimatch.ErrNotConfigured):
		httputil.WriteServiceUnavailable(w, err.Error())
	case errors.Is(err, aimatch.ErrUnknownRecipe):
		httputil.WriteBadGateway(w, err.Error())
	case errors.Is(err, aimatch.ErrUpstream):
		observability.FromContext(r.Context()).WithError(err).Warn("ai match failed")
		httputil.WriteBadGateway(w, err.Error())
	default:
		writeError(w, r, err)
	}
}
