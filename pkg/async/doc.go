// Package async runs fire-and-forget background work with panic recovery,
// per-task timeouts and error logging.
//
// It is used for best-effort side effects that must not fail a request, such
// as mirroring a token revocation into Redis or invalidating cache entries.
package async
