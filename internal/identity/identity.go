package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"promptdir/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoKey is returned by NewVerifier when neither a shared secret nor a public key is configured.
var ErrNoKey = errors.New("no jwt secret or public key configured")

// Identity is the authenticated caller as asserted by the identity provider.
// A nil *Identity means an anonymous caller.
type Identity struct {
	Subject  string
	Name     string
	Username string
}

// DisplayName is the name snapshot stored alongside comments.
func (i *Identity) DisplayName() string {
	if i == nil {
		return "Anonymous"
	}
	if n := strings.TrimSpace(i.Name); n != "" {
		return n
	}
	if u := strings.TrimSpace(i.Username); u != "" {
		return u
	}
	return "Anonymous"
}

// Claims are the session token claims this service reads. Anything else is ignored.
type Claims struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	keyFunc jwt.Keyfunc
	opts    []jwt.ParserOption
}

// NewVerifier builds a verifier from config. A public key file selects RS256,
// otherwise the shared secret selects HS256.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	if cfg.JWTPublicKeyFile != "" {
		pemBytes, err := os.ReadFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("parse jwt public key: %w", err)
		}
		return newVerifier(func(*jwt.Token) (interface{}, error) { return key, nil },
			[]string{"RS256"}, cfg.Issuer, cfg.Audience), nil
	}
	if cfg.JWTSecret != "" {
		return NewHMACVerifier([]byte(cfg.JWTSecret), cfg.Issuer, cfg.Audience), nil
	}
	return nil, ErrNoKey
}

func NewHMACVerifier(secret []byte, issuer, audience string) *Verifier {
	return newVerifier(func(*jwt.Token) (interface{}, error) { return secret, nil },
		[]string{"HS256"}, issuer, audience)
}

func newVerifier(keyFunc jwt.Keyfunc, methods []string, issuer, audience string) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &Verifier{keyFunc: keyFunc, opts: opts}
}

// Verify checks the token signature and registered claims and returns the caller.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, v.opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("invalid token: missing subject")
	}
	return &Identity{
		Subject:  claims.Subject,
		Name:     claims.Name,
		Username: claims.Username,
	}, nil
}
