package aimatch

import "errors"

var (
	// ErrNoIngredients is returned when the request names no ingredient
	ErrNoIngredients = errors.New("ingredients field is required")

	// ErrNoRecipes is returned when the catalogue is empty
	ErrNoRecipes = errors.New("no recipes available")

	// ErrNotConfigured is returned when a model call is needed but no API key is set
	ErrNotConfigured = errors.New("AI matching is not configured")

	// ErrUpstream wraps failures of the generative language API and
	// unusable answers
	ErrUpstream = errors.New("AI service error")

	// ErrUnknownRecipe is returned when the model names a recipe that does not exist
	ErrUnknownRecipe = errors.New("model selected unknown recipe")
)
