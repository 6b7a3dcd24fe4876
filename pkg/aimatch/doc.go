// Package aimatch picks the recipe that best fits a free-text list of
// ingredients.
//
// A request is answered locally when some recipe covers every ingredient
// the user named. Otherwise the catalogue is summarised into a prompt and
// sent to the Gemini generateContent API, trying each configured model in
// order until one answers. The model's reply is parsed leniently: code
// fences and surrounding prose are ignored and recipe_id may be a number or
// a numeric string.
//
// Results are cached per normalised ingredient set and identical concurrent
// requests share one upstream call. Call Purge after catalogue writes.
package aimatch
