// Package hostauth gates gtkctl's optional HTTP verify surface behind
// a bearer JWT, grounded on the teacher's pkg/auth JWTValidator/middleware
// pair. This is a thin external wrapper, not the pure kernel — step,
// verifier, and replay never see a token; they only ever see states,
// actions, and receipts.
package hostauth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer credential gtkctl serve expects: a chain_id scoping
// which chain the caller may verify/replay against, alongside the standard
// registered claims (exp, iat, sub).
type Claims struct {
	jwt.RegisteredClaims
	ChainID string `json:"chain_id"`
}

// Validator validates HS256-signed bearer tokens against a single shared
// secret. A production host would swap this for a KeySet-backed validator
// the way the teacher's auth package does for RS256/JWKS; gtkctl's serve
// command is a reference surface, not a multi-tenant gateway, so one
// secret is enough.
type Validator struct {
	secret []byte
}

// NewValidator wraps a shared HMAC secret. An empty secret is rejected:
// hostauth never silently accepts unsigned tokens.
func NewValidator(secret []byte) (*Validator, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("hostauth: secret must not be empty")
	}
	return &Validator{secret: secret}, nil
}

// Validate parses and validates a bearer token string, returning its claims.
func (v *Validator) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("hostauth: unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("hostauth: token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("hostauth: invalid token")
	}
	return claims, nil
}

// Middleware extracts and validates the bearer token on every request
// except the health check, fail-closed when the validator is nil (no
// secret configured means no serving, per the teacher's
// "validator nil => reject all" discipline).
func Middleware(v *Validator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if v == nil {
			http.Error(w, "hostauth: server has no auth secret configured", http.StatusServiceUnavailable)
			return
		}
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := v.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if claims.ChainID == "" {
			http.Error(w, "token missing chain_id claim", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
