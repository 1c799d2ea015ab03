package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newKeyPair(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	return key, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func sign(t *testing.T, key *rsa.PrivateKey, claims TokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestVerifierAcceptsAccessToken(t *testing.T) {
	key, pub := newKeyPair(t)
	v, err := NewVerifier(pub)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token := sign(t, key, TokenClaims{
		UserID:    7,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	claims, err := v.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("user id = %d", claims.UserID)
	}
}

func TestVerifierRejects(t *testing.T) {
	key, pub := newKeyPair(t)
	other, _ := newKeyPair(t)
	v, err := NewVerifier(pub)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Minute))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"expired", sign(t, key, TokenClaims{UserID: 1, TokenType: TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}})},
		{"foreign key", sign(t, other, TokenClaims{UserID: 1, TokenType: TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})},
		{"refresh token", sign(t, key, TokenClaims{UserID: 1, TokenType: "refresh", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})},
	}
	for _, tt := range tests {
		if _, err := v.ValidateAccessToken(tt.token); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestLoadVerifier(t *testing.T) {
	_, pub := newKeyPair(t)
	path := filepath.Join(t.TempDir(), "jwt.pub")
	if err := os.WriteFile(path, pub, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if _, err := LoadVerifier(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := LoadVerifier(filepath.Join(t.TempDir(), "missing.pub")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := NewVerifier([]byte("junk")); err == nil {
		t.Fatal("expected error for invalid pem")
	}
}
