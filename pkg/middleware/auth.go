package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/auth"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/contextkeys"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgInvalidToken  = "Given token not valid for any token type"
)

// Authenticator resolves an access token to the caller
type Authenticator interface {
	Authenticate(ctx context.Context, access string) (*auth.AuthContext, error)
}

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	authenticator Authenticator
	optional      bool // If true, allow requests without an Authorization header
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authenticator Authenticator, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		optional:      optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, msgNoCredentials)
			return
		}

		token, err := httputil.BearerToken(r)
		if err != nil {
			httputil.WriteUnauthorized(w, msgInvalidToken)
			return
		}

		authCtx, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			if isCredentialError(err) {
				httputil.WriteUnauthorized(w, msgInvalidToken)
				return
			}
			observability.FromContext(r.Context()).WithError(err).Error("authentication lookup failed")
			httputil.WriteInternalError(w)
			return
		}

		userID := authCtx.UserIDString()
		ctx := contextkeys.WithAuth(r.Context(), authCtx)
		ctx = contextkeys.WithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isCredentialError(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrTokenRevoked) ||
		errors.Is(err, auth.ErrUserInactive)
}

// GetAuthContext extracts auth context from request
func GetAuthContext(r *http.Request) *auth.AuthContext {
	authCtx, ok := r.Context().Value(contextkeys.AuthKey).(*auth.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// RequireAuth rejects requests that AuthMiddleware left anonymous
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthContext(r) == nil {
			httputil.WriteUnauthorized(w, msgNoCredentials)
			return
		}
		next.ServeHTTP(w, r)
	})
}
