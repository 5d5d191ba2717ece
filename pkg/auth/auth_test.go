package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("token-abc123").Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "token-abc123" {
		t.Errorf("token = %q", tok)
	}

	// Zero value disables auth.
	tok, err = StaticToken("").Token(context.Background())
	if err != nil || tok != "" {
		t.Errorf("empty static token: %q, %v", tok, err)
	}
}

func TestFileToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  secret-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tok, err := (FileToken{Path: path}).Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "secret-key" {
		t.Errorf("token = %q, want trimmed 'secret-key'", tok)
	}

	// Rotation: a rewritten file is picked up on the next call.
	if err := os.WriteFile(path, []byte("rotated"), 0o600); err != nil {
		t.Fatal(err)
	}
	tok, _ = (FileToken{Path: path}).Token(context.Background())
	if tok != "rotated" {
		t.Errorf("token after rotation = %q", tok)
	}
}

func TestFileToken_Missing(t *testing.T) {
	_, err := (FileToken{Path: "/nonexistent/key"}).Token(context.Background())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestJWTMinter_MintAndVerify(t *testing.T) {
	m, err := NewJWTMinter(JWTConfig{Secret: "shared", Subject: "probe-1"})
	if err != nil {
		t.Fatalf("creating minter: %v", err)
	}

	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("minting: %v", err)
	}

	sub, err := VerifyHS256(tok, "shared")
	if err != nil {
		t.Fatalf("verifying: %v", err)
	}
	if sub != "probe-1" {
		t.Errorf("subject = %q, want 'probe-1'", sub)
	}

	if _, err := VerifyHS256(tok, "wrong-secret"); err == nil {
		t.Error("verification should fail with wrong secret")
	}
}

func TestJWTMinter_CachesToken(t *testing.T) {
	m, err := NewJWTMinter(JWTConfig{Secret: "s", TTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	first, _ := m.Token(context.Background())
	second, _ := m.Token(context.Background())
	if first != second {
		t.Error("token should be cached within its lifetime")
	}

	// Move the clock past the refresh threshold.
	m.now = func() time.Time { return time.Now().Add(50 * time.Minute) }
	third, _ := m.Token(context.Background())
	if third == first {
		t.Error("token should be re-minted near expiry")
	}
}

func TestJWTMinter_RequiresSecret(t *testing.T) {
	if _, err := NewJWTMinter(JWTConfig{}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestKeyChecker(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		want   bool
	}{
		{"valid key", "token-abc123", "Bearer token-abc123", true},
		{"wrong key", "token-abc123", "Bearer nope", false},
		{"missing header", "token-abc123", "", false},
		{"not bearer", "token-abc123", "Basic dXNlcg==", false},
		{"empty bearer", "token-abc123", "Bearer ", false},
		{"auth disabled", "", "", true},
		{"auth disabled ignores header", "", "Bearer whatever", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewKeyChecker(tt.key)
			r := httptest.NewRequest("POST", "/v1/responses", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := c.Check(r); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyCheckerMiddleware(t *testing.T) {
	c := NewKeyChecker("token-abc123")
	handler := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Rejected without key.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/responses", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	// Accepted with key.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/responses", nil)
	req.Header.Set("Authorization", "Bearer token-abc123")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestJWTChecker(t *testing.T) {
	minter, err := NewJWTMinter(JWTConfig{Secret: "s3cret", Subject: "probe"})
	if err != nil {
		t.Fatalf("NewJWTMinter: %v", err)
	}
	signed, err := minter.Token(context.Background())
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		header string
		want   bool
	}{
		{"valid token", "s3cret", "Bearer " + signed, true},
		{"wrong secret", "other", "Bearer " + signed, false},
		{"opaque key", "s3cret", "Bearer token-abc123", false},
		{"missing header", "s3cret", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewJWTChecker(tt.secret)
			r := httptest.NewRequest("POST", "/v1/responses", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := c.Check(r); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJWTCheckerMiddleware(t *testing.T) {
	minter, err := NewJWTMinter(JWTConfig{Secret: "s3cret"})
	if err != nil {
		t.Fatalf("NewJWTMinter: %v", err)
	}
	signed, err := minter.Token(context.Background())
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	handler := NewJWTChecker("s3cret").Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/responses", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/responses", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
