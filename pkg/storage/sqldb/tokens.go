package sqldb

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken records a revoked token ID until its expiry. Revoking twice
// is not an error.
func (s *Store) RevokeToken(ctx context.Context, jti string, userID int64, expiresAt time.Time) (err error) {
	ctx, done := s.startOp(ctx, "revoke_token")
	defer func() { done(err) }()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, user_id, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO NOTHING`,
		jti, userID, expiresAt.UTC(), s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether jti has been revoked
func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (revoked bool, err error) {
	ctx, done := s.startOp(ctx, "is_token_revoked")
	defer func() { done(err) }()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE jti = $1`, jti).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}

// PurgeExpiredTokens deletes revocation rows whose token has expired by now
func (s *Store) PurgeExpiredTokens(ctx context.Context, now time.Time) (purged int64, err error) {
	ctx, done := s.startOp(ctx, "purge_expired_tokens")
	defer func() { done(err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return res.RowsAffected()
}
