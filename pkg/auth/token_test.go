package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenManager() *TokenManager {
	return NewTokenManager(TokenConfig{
		Secret:     testSecret,
		Issuer:     "mypocketspice",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := newTestTokenManager()
	user := &User{ID: 42, Username: "alice"}

	access, refresh, err := m.IssuePair(user)
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(access, ".")))

	claims, err := m.Parse(access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	refreshClaims, err := m.Parse(refresh, TokenTypeRefresh)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, refreshClaims.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), refreshClaims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_ParseRejects(t *testing.T) {
	m := newTestTokenManager()
	user := &User{ID: 7, Username: "bob"}

	access, _, err := m.Issue(user, TokenTypeAccess)
	require.NoError(t, err)

	expiredManager := newTestTokenManager()
	expiredManager.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := expiredManager.Issue(user, TokenTypeAccess)
	require.NoError(t, err)

	otherKey := NewTokenManager(TokenConfig{Secret: strings.Repeat("z", 32), Issuer: "mypocketspice", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	forged, _, err := otherKey.Issue(user, TokenTypeAccess)
	require.NoError(t, err)

	otherIssuer := NewTokenManager(TokenConfig{Secret: testSecret, Issuer: "someone-else", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	foreign, _, err := otherIssuer.Issue(user, TokenTypeAccess)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7", "token_type": "access"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  TokenType
	}{
		{"wrong type", access, TokenTypeRefresh},
		{"expired", expired, TokenTypeAccess},
		{"bad signature", forged, TokenTypeAccess},
		{"wrong issuer", foreign, TokenTypeAccess},
		{"alg none", none, TokenTypeAccess},
		{"garbage", "not.a.jwt", TokenTypeAccess},
		{"empty", "", TokenTypeAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Parse(tt.token, tt.want)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
