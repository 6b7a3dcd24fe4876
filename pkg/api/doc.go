// Package api provides the HTTP REST API of the recipe catalogue.
//
// # Overview
//
// The server is built on gorilla/mux and organised into handler groups:
//
//   - Recipes: paginated list, category and title search, detail, create, delete
//   - Reference data: categories and skill levels
//   - Authentication: register, login, logout, token refresh, current user
//   - AI match: pick the recipe that best fits a free-text ingredient list
//
// # Endpoints
//
//	GET    /api/recipes/                       list, newest first
//	GET    /api/recipes/search/?q=             title contains q
//	GET    /api/recipes/category/{category}/   category name equals
//	GET    /api/recipes/{id}/                  detail
//	POST   /api/recipes/create/                create (auth)
//	DELETE /api/recipes/{id}/                  delete (auth)
//	POST   /api/recipes/ai-match/              ingredient match (rate limited)
//	GET    /api/categories/
//	DELETE /api/categories/{id}/               (auth) 409 while referenced
//	GET    /api/skill-levels/
//	POST   /api/skill-levels/                  (auth)
//	POST   /api/auth/register/
//	POST   /api/auth/login/
//	POST   /api/auth/logout/                   (auth)
//	POST   /api/auth/token/refresh/
//	GET    /api/auth/me/                       (auth)
//
// Lists are paginated with ?page= and ?page_size= and answer
// {count, next, previous, results}. Errors are {"error": message}, with a
// "details" object for field validation failures.
//
// # Usage
//
//	server := api.NewServer(api.Options{
//		Store:   cachedStore,
//		Auth:    authService,
//		Matcher: matcher,
//		Metrics: metrics,
//		Logger:  logger,
//	})
//	http.ListenAndServe(":8000", server)
package api
