// Package session implements the admin session gate: credential checks,
// signed session tokens, and a persisted session flag that survives server
// restarts. The gate is an explicit Manager object injected where it is
// needed; there is no package-level session state.
package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sentinel errors for the session gate.
var (
	// ErrInvalidCredentials is returned on a failed sign-in. It carries no
	// detail about which part of the credentials was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidSession is returned when a presented token is malformed,
	// expired, tampered with, or no longer backed by a persisted session.
	ErrInvalidSession = errors.New("invalid session")
)

// AuthService is the external credential authority.
type AuthService interface {
	SignIn(ctx context.Context, identity, secret string) error
	// SignOut is best effort; failures are logged and ignored.
	SignOut(ctx context.Context) error
}

// Store persists the session flag under the session id. A session is live
// while its flag exists.
type Store interface {
	Put(ctx context.Context, id string, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// Config holds the token signing parameters.
type Config struct {
	// Secret signs session tokens with HMAC-SHA256.
	Secret []byte
	// TTL bounds both the token lifetime and the persisted flag.
	TTL time.Duration
	// Issuer names this deployment in issued tokens.
	Issuer string
}

type claims struct {
	jwt.RegisteredClaims
}

// Manager is the session gate.
type Manager struct {
	auth  AuthService
	store Store
	cfg   Config
	now   func() time.Time
}

// NewManager creates a session gate over the given credential authority and
// persisted store.
func NewManager(auth AuthService, store Store, cfg Config) *Manager {
	return &Manager{
		auth:  auth,
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Authenticate checks the credentials, persists a fresh session flag, and
// returns a signed token carrying the session id. On failure nothing is
// persisted and ErrInvalidCredentials is returned.
func (m *Manager) Authenticate(ctx context.Context, identity, secret string) (string, error) {
	if err := m.auth.SignIn(ctx, identity, secret); err != nil {
		return "", ErrInvalidCredentials
	}

	id := uuid.New().String()
	if err := m.store.Put(ctx, id, m.cfg.TTL); err != nil {
		return "", errors.Wrap(err, "persist session")
	}

	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	})

	signed, err := token.SignedString(m.cfg.Secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}
	return signed, nil
}

// Verify validates the token signature and expiry, then checks that the
// session flag is still persisted. It returns the session id on success.
// The persisted check makes the gate survive restarts and makes logout
// effective immediately.
func (m *Manager) Verify(ctx context.Context, token string) (string, error) {
	id, err := m.parse(token)
	if err != nil {
		return "", err
	}

	ok, err := m.store.Exists(ctx, id)
	if err != nil {
		return "", errors.Wrap(err, "check session")
	}
	if !ok {
		return "", ErrInvalidSession
	}
	return id, nil
}

// Deauthenticate ends the session unconditionally. Remote sign-out and flag
// deletion failures are logged and swallowed: no network failure prevents a
// local logout.
func (m *Manager) Deauthenticate(ctx context.Context, token string) {
	lg := zctx.From(ctx)

	if err := m.auth.SignOut(ctx); err != nil {
		lg.Warn("Remote sign-out failed", zap.Error(err))
	}

	id, err := m.parse(token)
	if err != nil {
		// Nothing persisted to clean up for an unparseable token.
		return
	}
	if err := m.store.Delete(ctx, id); err != nil {
		lg.Warn("Session flag delete failed", zap.Error(err))
	}
}

func (m *Manager) parse(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return m.cfg.Secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", ErrInvalidSession
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return "", ErrInvalidSession
	}
	return c.Subject, nil
}
