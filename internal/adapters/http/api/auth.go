package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// authedHandler is a handler that has an authenticated caller identity.
type authedHandler func(w http.ResponseWriter, r *http.Request, caller types.Identity)

// Claims is the JWT payload: the subject is the caller identity and the
// admin flag marks privileged callers.
type Claims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator over a shared HS256 secret.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// Identify extracts and verifies the caller identity from the request.
func (a *Authenticator) Identify(r *http.Request) (types.Identity, *Claims, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", nil, fmt.Errorf("authorization header: %w", ErrUnauthorized)
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", nil, fmt.Errorf("token: %w", ErrUnauthorized)
	}
	return types.Identity(claims.Subject), claims, nil
}

// Require wraps a handler with bearer authentication.
func (a *Authenticator) Require(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _, err := a.Identify(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, caller)
	}
}

// Token mints a signed bearer token for an identity; used by tests and
// local tooling.
func (a *Authenticator) Token(id types.Identity, admin bool) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: string(id),
		},
	})
	signed, err := tok.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
