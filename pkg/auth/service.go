package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/async"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/validation"
)

const (
	maxUsernameLen = 150
	maxNameLen     = 150
	maxEmailLen    = 254

	mirrorTimeout = 2 * time.Second
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// dummyHash is compared against when the user does not exist so that
// unknown usernames take as long as wrong passwords
var dummyHash, _ = HashPassword("not-a-real-password")

// UserStore persists accounts
type UserStore interface {
	// CreateUser sets u.ID and returns ErrUserExists on a duplicate username
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// RevocationStore is the durable record of revoked token IDs
type RevocationStore interface {
	RevokeToken(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// RevocationMirror is a fast, best-effort copy of the revocation list
type RevocationMirror interface {
	MarkRevoked(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RegisterInput is the body of a registration request
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// Service implements registration, login, logout and token checks
type Service struct {
	users       UserStore
	revocations RevocationStore
	mirror      RevocationMirror
	tokens      *TokenManager
	logger      *observability.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewService creates an auth service. metrics may be nil.
func NewService(users UserStore, revocations RevocationStore, tokens *TokenManager, logger *observability.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		users:       users,
		revocations: revocations,
		tokens:      tokens,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// SetMirror enables the Redis copy of the revocation list
func (s *Service) SetMirror(mirror RevocationMirror) {
	s.mirror = mirror
}

// Register validates input, creates the account and signs a token pair
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validateRegistration(in); err != nil {
		s.metrics.AuthEvent("register", "invalid")
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DateJoined:   s.now().UTC(),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			s.metrics.AuthEvent("register", "conflict")
			return nil, validation.NewFieldError("username", "A user with this username already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.session(user)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("register", "success")
	observability.FromContext(ctx).WithField("username", user.Username).Info("user registered")
	return session, nil
}

func validateRegistration(in RegisterInput) error {
	errs := &validation.FieldErrors{}

	errs.RequireString("username", in.Username, maxUsernameLen)
	if in.Username != "" && !usernamePattern.MatchString(in.Username) {
		errs.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	if in.Email != "" {
		errs.OptionalString("email", in.Email, maxEmailLen)
		if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
			errs.Add("email", "Enter a valid email address.")
		}
	}
	errs.OptionalString("first_name", in.FirstName, maxNameLen)
	errs.OptionalString("last_name", in.LastName, maxNameLen)

	switch {
	case in.Password == "":
		errs.Add("password", validation.MsgRequired)
	case len([]rune(in.Password)) < MinPasswordLength:
		errs.Add("password", fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	case len(in.Password) > 72:
		errs.Add("password", validation.MaxLengthMessage(72))
	}
	if in.PasswordConfirm == "" {
		errs.Add("password_confirm", validation.MsgRequired)
	}
	if !errs.Has("password") && in.PasswordConfirm != "" && in.Password != in.PasswordConfirm {
		errs.Add("password", "Password fields didn't match.")
	}

	return errs.Err()
}

// Login verifies credentials, records the login time and signs a token pair
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		s.metrics.AuthEvent("login", "invalid")
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		_, _ = CheckPassword(dummyHash, password)
		s.metrics.AuthEvent("login", "failure")
		return nil, ErrInvalidCredentials
	}

	ok, err := CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.AuthEvent("login", "failure")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.metrics.AuthEvent("login", "inactive")
		return nil, ErrUserInactive
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	session, err := s.session(user)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("login", "success")
	return session, nil
}

// Logout revokes the given refresh token and the access token of the
// current request. The refresh token must belong to the caller.
func (s *Service) Logout(ctx context.Context, authCtx *AuthContext, refresh string) error {
	claims, err := s.tokens.Parse(refresh, TokenTypeRefresh)
	if err != nil {
		s.metrics.AuthEvent("logout", "invalid")
		return err
	}
	userID, err := claims.UserID()
	if err != nil {
		return err
	}
	if authCtx != nil && authCtx.User != nil && authCtx.User.ID != userID {
		s.metrics.AuthEvent("logout", "invalid")
		return fmt.Errorf("%w: token belongs to another user", ErrInvalidToken)
	}

	if err := s.revoke(ctx, claims.ID, userID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	if authCtx != nil && authCtx.TokenID != "" {
		if err := s.revoke(ctx, authCtx.TokenID, userID, authCtx.ExpiresAt); err != nil {
			return err
		}
	}

	s.metrics.AuthEvent("logout", "success")
	return nil
}

func (s *Service) revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	if err := s.revocations.RevokeToken(ctx, jti, userID, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if s.mirror != nil {
		async.SafeGo(ctx, s.logger, mirrorTimeout, "revocation mirror", func(ctx context.Context) error {
			return s.mirror.MarkRevoked(ctx, jti, expiresAt)
		})
	}
	return nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token
func (s *Service) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := s.tokens.Parse(refresh, TokenTypeRefresh)
	if err != nil {
		s.metrics.AuthEvent("refresh", "invalid")
		return "", err
	}
	user, err := s.activeUser(ctx, claims)
	if err != nil {
		s.metrics.AuthEvent("refresh", "invalid")
		return "", err
	}

	access, _, err := s.tokens.Issue(user, TokenTypeAccess)
	if err != nil {
		return "", err
	}
	s.metrics.AuthEvent("refresh", "success")
	return access, nil
}

// Authenticate resolves an access token to its active user
func (s *Service) Authenticate(ctx context.Context, access string) (*AuthContext, error) {
	claims, err := s.tokens.Parse(access, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	user, err := s.activeUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return &AuthContext{
		User:      user,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) activeUser(ctx context.Context, claims *Claims) (*User, error) {
	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// isRevoked consults the mirror first and falls back to the store on a
// miss or mirror failure
func (s *Service) isRevoked(ctx context.Context, jti string) (bool, error) {
	if s.mirror != nil {
		revoked, err := s.mirror.IsRevoked(ctx, jti)
		if err == nil && revoked {
			return true, nil
		}
		if err != nil {
			observability.FromContext(ctx).WithError(err).Warn("revocation mirror lookup failed")
		}
	}
	revoked, err := s.revocations.IsTokenRevoked(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return revoked, nil
}

func (s *Service) session(user *User) (*Session, error) {
	access, refresh, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Access: access, Refresh: refresh}, nil
}
