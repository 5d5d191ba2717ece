package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// JWTConfig holds settings for the JWT token source.
type JWTConfig struct {
	// Secret is the HS256 signing key shared with the verifying gateway.
	Secret string

	// Subject is the sub claim. Default: "logprobe".
	Subject string

	// Issuer is the iss claim. Default: "logprobe".
	Issuer string

	// Audience is the aud claim. If empty, no audience is set.
	Audience string

	// TTL is the token lifetime. Default: 5 minutes.
	TTL time.Duration
}

// applyDefaults fills in zero-value fields.
func (c *JWTConfig) applyDefaults() {
	if c.Subject == "" {
		c.Subject = "logprobe"
	}
	if c.Issuer == "" {
		c.Issuer = "logprobe"
	}
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
}

// JWTMinter mints short-lived HS256 bearer tokens. Tokens are cached and
// re-minted when less than a quarter of their lifetime remains, so a probe
// run that issues several requests reuses one token.
type JWTMinter struct {
	cfg JWTConfig

	// now is swappable for tests.
	now func() time.Time

	mu      sync.Mutex
	cached  string
	expires time.Time
}

// NewJWTMinter creates a JWT token source with the given configuration.
func NewJWTMinter(cfg JWTConfig) (*JWTMinter, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt: secret is required")
	}
	cfg.applyDefaults()
	return &JWTMinter{cfg: cfg, now: time.Now}, nil
}

// Token returns a signed JWT, minting a fresh one when the cached token is
// close to expiry.
func (m *JWTMinter) Token(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.cached != "" && now.Before(m.expires.Add(-m.cfg.TTL/4)) {
		return m.cached, nil
	}

	expires := now.Add(m.cfg.TTL)
	claims := jwtlib.MapClaims{
		"sub": m.cfg.Subject,
		"iss": m.cfg.Issuer,
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}
	if m.cfg.Audience != "" {
		claims["aud"] = m.cfg.Audience
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("jwt: signing token: %w", err)
	}

	m.cached = signed
	m.expires = expires
	return signed, nil
}

// VerifyHS256 parses and validates an HS256 token against the given secret,
// returning its subject claim. Used by the mock backend when configured for
// JWT auth, and by tests.
func VerifyHS256(tokenStr, secret string) (string, error) {
	token, err := jwtlib.Parse(tokenStr, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("jwt: %w", err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return "", ErrUnauthenticated
	}

	sub, _ := claims.GetSubject()
	return sub, nil
}
