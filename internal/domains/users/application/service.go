package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/swiftcourier/courier-api/internal/domains/users/domain"
	"github.com/swiftcourier/courier-api/internal/domains/users/ports"
)

var (
	// ErrInvalidCredentials signals a failed login or an unusable token.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrNotFound signals an unknown username.
	ErrNotFound = errors.New("user not found")
)

// DefaultSessionTTL bounds how long an issued token stays valid.
const DefaultSessionTTL = 12 * time.Hour

// Service owns account management and session token issuance. Tokens are
// HMAC-signed JWTs; the session store makes logout effective before the
// signature expiry.
type Service struct {
	repo       ports.Repository
	sessions   ports.SessionStore
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

type Option func(*Service)

// WithSessionTTL overrides the token lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the users service with its dependencies.
func NewService(repo ports.Repository, sessions ports.SessionStore, signingKey []byte, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		sessions:   sessions,
		signingKey: signingKey,
		ttl:        DefaultSessionTTL,
		now:        time.Now,
	}
	if s.sessions == nil {
		s.sessions = ports.NoopSessionStore
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, username, password, email string, role domain.Role) (*domain.User, error) {
	user, err := domain.NewUser(username, password, role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	user.Email = email
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Login verifies credentials and issues a signed session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.CheckPassword(password) {
		return "", nil, ErrInvalidCredentials
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	tokenID := uuid.NewString()
	claims := sessionClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", nil, err
	}
	if err := s.sessions.Save(ctx, tokenID, user.Username, expiresAt); err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes the session the token belongs to.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return ErrInvalidCredentials
	}
	return s.sessions.Delete(ctx, claims.ID)
}

// ResolveToken maps a presented token to its user. Expired, malformed,
// forged, or revoked tokens all resolve to ErrInvalidCredentials.
func (s *Service) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	active, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// PurgeExpiredSessions drops sessions past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int, error) {
	return s.sessions.PurgeExpired(ctx, s.now())
}

func (s *Service) parseToken(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}
