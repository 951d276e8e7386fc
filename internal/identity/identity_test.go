package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"promptdir/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(sub string) Claims {
	return Claims{
		Name:     "Alice",
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "https://id.example.com",
			Audience:  jwt.ClaimStrings{"promptdir"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerifyHMAC(t *testing.T) {
	v := NewHMACVerifier(secret, "", "")

	who, err := v.Verify(sign(t, jwt.SigningMethodHS256, secret, validClaims("user-1")))
	require.NoError(t, err)
	assert.Equal(t, &Identity{Subject: "user-1", Name: "Alice", Username: "alice"}, who)
}

func TestVerifyRejects(t *testing.T) {
	v := NewHMACVerifier(secret, "https://id.example.com", "promptdir")

	expired := validClaims("user-1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	noExpiry := validClaims("user-1")
	noExpiry.ExpiresAt = nil

	wrongIssuer := validClaims("user-1")
	wrongIssuer.Issuer = "https://evil.example.com"

	wrongAudience := validClaims("user-1")
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	cases := map[string]string{
		"garbage":        "not-a-token",
		"wrong secret":   sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims("user-1")),
		"wrong method":   sign(t, jwt.SigningMethodHS512, secret, validClaims("user-1")),
		"expired":        sign(t, jwt.SigningMethodHS256, secret, expired),
		"no expiry":      sign(t, jwt.SigningMethodHS256, secret, noExpiry),
		"missing sub":    sign(t, jwt.SigningMethodHS256, secret, validClaims("")),
		"wrong issuer":   sign(t, jwt.SigningMethodHS256, secret, wrongIssuer),
		"wrong audience": sign(t, jwt.SigningMethodHS256, secret, wrongAudience),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			who, err := v.Verify(token)
			assert.Error(t, err)
			assert.Nil(t, who)
		})
	}

	who, err := v.Verify(sign(t, jwt.SigningMethodHS256, secret, validClaims("user-1")))
	require.NoError(t, err)
	assert.Equal(t, "user-1", who.Subject)
}

func TestNewVerifier(t *testing.T) {
	_, err := NewVerifier(config.AuthConfig{})
	assert.ErrorIs(t, err, ErrNoKey)

	v, err := NewVerifier(config.AuthConfig{JWTSecret: string(secret)})
	require.NoError(t, err)
	_, err = v.Verify(sign(t, jwt.SigningMethodHS256, secret, validClaims("user-1")))
	assert.NoError(t, err)

	_, err = NewVerifier(config.AuthConfig{JWTPublicKeyFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)
}

func TestNewVerifierRSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "jwt.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	// The public key wins over a configured secret.
	v, err := NewVerifier(config.AuthConfig{JWTPublicKeyFile: path, JWTSecret: string(secret)})
	require.NoError(t, err)

	who, err := v.Verify(sign(t, jwt.SigningMethodRS256, key, validClaims("user-rsa")))
	require.NoError(t, err)
	assert.Equal(t, "user-rsa", who.Subject)

	_, err = v.Verify(sign(t, jwt.SigningMethodHS256, secret, validClaims("user-rsa")))
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	var anon *Identity
	assert.Equal(t, "Anonymous", anon.DisplayName())
	assert.Equal(t, "Alice", (&Identity{Name: " Alice ", Username: "alice"}).DisplayName())
	assert.Equal(t, "alice", (&Identity{Username: "alice"}).DisplayName())
	assert.Equal(t, "Anonymous", (&Identity{Subject: "x", Name: "  "}).DisplayName())
}
