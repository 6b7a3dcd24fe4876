package api

import (
	"errors"
	"net/http"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/validation"
)

const msgNotFound = "Not found."

// writeError maps store and validation errors to responses. Anything
// unrecognised is logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs *validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		httputil.WriteValidationErrors(w, fieldErrs.Fields)
	case errors.Is(err, catalog.ErrNotFound):
		httputil.WriteNotFoundError(w, msgNotFound)
	case errors.Is(err, catalog.ErrProtected):
		httputil.WriteConflict(w, "Cannot delete: "+catalog.ErrProtected.Error()+".")
	case errors.Is(err, catalog.ErrConflict):
		httputil.WriteConflict(w, err.Error())
	default:
		observability.FromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("request failed")
		httputil.WriteInternalError(w)
	}
}
