// Package httputil holds the JSON request/response helpers and the generic
// HTTP middleware shared by every handler.
//
// Errors are always written as {"error": "..."}; field validation failures
// add a "details" object keyed by field name:
//
//	httputil.WriteNotFoundError(w, "Invalid page.")
//	httputil.WriteValidationErrors(w, map[string]string{"title": "This field is required."})
//
// Request bodies are decoded with ParseJSONOrError, which writes the 400 itself:
//
//	var req CreateRecipeRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return
//	}
//
// Middleware compose with Chain, outermost first:
//
//	handler = httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)(router)
package httputil
