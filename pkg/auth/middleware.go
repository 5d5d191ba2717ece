package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// KeyChecker validates incoming bearer tokens against a static key.
// Keys are hashed immediately; the plaintext key is not retained.
type KeyChecker struct {
	keyHash [32]byte
	enabled bool
}

// NewKeyChecker creates a checker for the given key. An empty key disables
// checking (every request passes).
func NewKeyChecker(key string) *KeyChecker {
	if key == "" {
		return &KeyChecker{}
	}
	return &KeyChecker{keyHash: sha256.Sum256([]byte(key)), enabled: true}
}

// Check reports whether the request carries a valid bearer token.
func (c *KeyChecker) Check(r *http.Request) bool {
	if !c.enabled {
		return true
	}

	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}

	tokenHash := sha256.Sum256([]byte(header[len(prefix):]))
	return subtle.ConstantTimeCompare(tokenHash[:], c.keyHash[:]) == 1
}

// Middleware wraps a handler with bearer key validation. Rejected requests
// receive a 401 with a vLLM-style JSON error body.
func (c *KeyChecker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Check(r) {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// JWTChecker validates incoming bearer tokens as HS256 JWTs signed with a
// shared secret.
type JWTChecker struct {
	secret string
}

// NewJWTChecker creates a checker for the given signing secret.
func NewJWTChecker(secret string) *JWTChecker {
	return &JWTChecker{secret: secret}
}

// Check reports whether the request carries a valid signed token.
func (c *JWTChecker) Check(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	_, err := VerifyHS256(header[len(prefix):], c.secret)
	return err == nil
}

// Middleware wraps a handler with JWT validation. Rejected requests receive
// a 401 with a vLLM-style JSON error body.
func (c *JWTChecker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Check(r) {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"object":  "error",
		"message": "Unauthorized",
		"code":    http.StatusUnauthorized,
	})
}
