// Package auth implements username/password accounts and signed bearer
// tokens.
//
// Passwords are stored as bcrypt hashes. Login issues a pair of HS256 JWTs:
// a short-lived access token sent as "Authorization: Bearer <access>" and a
// longer-lived refresh token that can be exchanged for new access tokens.
// Both carry a unique jti; logout records the jti in the revocation store
// (and, when Redis is configured, a mirror of it) until the token expires.
//
//	tokens := auth.NewTokenManager(auth.TokenConfig{Secret: secret, AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour})
//	svc := auth.NewService(store, store, tokens, logger, metrics)
//	session, err := svc.Login(ctx, "alice", "correct horse")
package auth
