// Package auth provides bearer token handling for logprobe.
//
// The client side is a TokenSource abstraction: a static key (the common
// vLLM --api-key case), a file-backed key, or a short-lived HS256 JWT minted
// per request for deployments fronted by a gateway that verifies signed
// tokens. The server side is a middleware used by the mock backend that
// validates incoming bearer keys with constant-time comparison.
package auth

import (
	"context"
	"errors"
	"os"
	"strings"
)

// ErrUnauthenticated is returned when a bearer token is missing or invalid.
var ErrUnauthenticated = errors.New("unauthenticated")

// TokenSource supplies the bearer token attached to outgoing requests.
type TokenSource interface {
	// Token returns the current bearer token, or an empty string when no
	// authentication is configured.
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
// A zero StaticToken disables authentication.
type StaticToken string

// Token returns the static token value.
func (s StaticToken) Token(_ context.Context) (string, error) {
	return string(s), nil
}

// FileToken reads the token from a file on every call, so rotated secrets
// are picked up without a restart. Surrounding whitespace is trimmed.
type FileToken struct {
	Path string
}

// Token reads and returns the file contents.
func (f FileToken) Token(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
