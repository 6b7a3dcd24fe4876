// Package middleware provides HTTP middleware for bearer authentication and
// per-client rate limiting.
//
// AuthMiddleware resolves "Authorization: Bearer <access>" through the auth
// service and stores the *auth.AuthContext on the request context. In
// optional mode requests without a header pass through anonymously, but a
// header that is present must be valid.
//
//	authn := middleware.NewAuthMiddleware(authService, true)
//	router.Handle("/api/recipes/", authn.Handler(listHandler))
//	router.Handle("/api/auth/me/", authn.Handler(middleware.RequireAuth(meHandler)))
//
// Rate limiting keys clients by user ID when authenticated and by client IP
// otherwise, as resolved by httputil.ProxyHeadersMiddleware. Two Limiter implementations exist:
//
//	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Rate: 0.5, Burst: 5})
//	limiter := middleware.NewDistributedRateLimiter(redisClient, 5, 10*time.Second, "ratelimit:ai")
//	route.Handler(middleware.RateLimit(limiter, logger)(aiHandler))
//
// The Redis limiter uses a fixed window counter shared by every instance and
// fails open when Redis is unavailable.
package middleware
