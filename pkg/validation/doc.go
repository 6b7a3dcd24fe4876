// Package validation holds the field-level checks and text normalisation
// shared by request validators.
//
// Validators accumulate messages keyed by JSON field name and return them as
// a single error that handlers render as a 400:
//
//	errs := &validation.FieldErrors{}
//	errs.RequireString("title", in.Title, 500)
//	errs.MinInt("servings", *in.Servings, 1)
//	if err := errs.Err(); err != nil {
//		return err
//	}
//
// NameKey and SplitTerms define how category, ingredient and search terms
// compare, so storage and matching agree on what "the same name" means.
package validation
