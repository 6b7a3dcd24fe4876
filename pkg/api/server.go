package api

import (
	"net/http"
	"net/netip"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/aimatch"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/auth"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/middleware"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

// Options wires a Server. Store and Auth are required.
type Options struct {
	Store   catalog.Store
	Auth    *auth.Service
	Matcher *aimatch.Matcher
	// MatchLimiter throttles ai-match per client; nil disables throttling
	MatchLimiter middleware.Limiter
	Metrics      *observability.Metrics
	Logger       *observability.Logger
	CORSOrigins  []string
	MaxBodyBytes int64
	// TrustedProxies may set the client address through forwarding headers
	TrustedProxies []netip.Prefix
}

// Server represents our API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	logger  *observability.Logger

	recipes   *RecipeHandlers
	reference *ReferenceHandlers
	auth      *AuthHandlers
	match     *MatchHandlers

	authn        *middleware.AuthMiddleware
	matchLimiter middleware.Limiter
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	store := opts.Store
	if opts.Matcher != nil {
		// Catalogue writes invalidate cached match results
		store = withChangeNotifier(store)
		store.(changeNotifier).OnChange(opts.Matcher.Purge)
	}

	s := &Server{
		router:       mux.NewRouter().StrictSlash(true),
		logger:       logger,
		recipes:      NewRecipeHandlers(store, opts.Metrics),
		reference:    NewReferenceHandlers(store),
		auth:         NewAuthHandlers(opts.Auth),
		authn:        middleware.NewAuthMiddleware(opts.Auth, true),
		matchLimiter: opts.MatchLimiter,
	}
	if opts.Matcher != nil {
		s.match = NewMatchHandlers(opts.Matcher)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFoundError(w, "Not found.")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, "Method \""+r.Method+"\" not allowed.")
	})

	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
	}
	s.setupRoutes()

	s.handler = httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.ProxyHeadersMiddleware(opts.TrustedProxies),
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.CORSMiddleware(opts.CORSOrigins),
		httputil.MaxBytesMiddleware(opts.MaxBodyBytes),
	)(s.router)
	s.handler = otelhttp.NewHandler(s.handler, "spice-api")

	return s
}

// setupRoutes configures all the API routes. Catalogue routes identify the
// caller from an optional bearer token; the account routes that issue tokens
// ignore the Authorization header.
func (s *Server) setupRoutes() {
	r := s.router

	// Recipes. Literal paths are registered before {id}.
	r.Handle("/api/recipes/", s.optionalAuth(s.recipes.list)).Methods(http.MethodGet)
	r.Handle("/api/recipes/search/", s.optionalAuth(s.recipes.search)).Methods(http.MethodGet)
	r.Handle("/api/recipes/category/{category}/", s.optionalAuth(s.recipes.byCategory)).Methods(http.MethodGet)
	r.Handle("/api/recipes/create/", s.requireAuth(s.recipes.create)).Methods(http.MethodPost)
	r.Handle("/api/recipes/ai-match/", s.authn.Handler(s.aiMatchHandler())).Methods(http.MethodPost)
	r.Handle("/api/recipes/{id:[0-9]+}/", s.optionalAuth(s.recipes.get)).Methods(http.MethodGet)
	r.Handle("/api/recipes/{id:[0-9]+}/", s.requireAuth(s.recipes.delete)).Methods(http.MethodDelete)

	// Reference data
	r.Handle("/api/categories/", s.optionalAuth(s.reference.listCategories)).Methods(http.MethodGet)
	r.Handle("/api/categories/{id:[0-9]+}/", s.requireAuth(s.reference.deleteCategory)).Methods(http.MethodDelete)
	r.Handle("/api/skill-levels/", s.optionalAuth(s.reference.listSkillLevels)).Methods(http.MethodGet)
	r.Handle("/api/skill-levels/", s.requireAuth(s.reference.createSkillLevel)).Methods(http.MethodPost)

	s.auth.RegisterRoutes(r, s.requireAuth)
}

func (s *Server) aiMatchHandler() http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteServiceUnavailable(w, aimatch.ErrNotConfigured.Error())
	})
	if s.match != nil {
		h = http.HandlerFunc(s.match.aiMatch)
	}
	if s.matchLimiter != nil {
		h = middleware.RateLimit(s.matchLimiter, s.logger)(h)
	}
	return h
}

func (s *Server) optionalAuth(fn http.HandlerFunc) http.Handler {
	return s.authn.Handler(fn)
}

func (s *Server) requireAuth(fn http.HandlerFunc) http.Handler {
	return s.authn.Handler(middleware.RequireAuth(fn))
}

// Router exposes the router for registering additional routes
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
