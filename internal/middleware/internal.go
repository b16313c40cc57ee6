package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"gymstay/backend/internal/authctx"
	"gymstay/backend/internal/httpjson"
)

const ScopeNotify = "bookings:notify"

// ServiceClaims is the token our own frontends/functions use for system calls.
type ServiceClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

func (c ServiceClaims) HasScope(want string) bool {
	return slices.Contains(strings.Fields(c.Scope), want)
}

// NewServiceToken signs an HS256 service token.
func NewServiceToken(secret, subject, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseServiceToken(secret, tokenStr string) (*ServiceClaims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &ServiceClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*ServiceClaims)
	if !ok || !t.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// InternalAuth accepts only service tokens carrying scope. An empty secret
// disables the route with a 500.
func InternalAuth(secret, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				httpjson.Error(w, http.StatusInternalServerError, "internal auth not configured")
				return
			}
			tok, ok := bearer(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "missing Authorization: Bearer <token>")
				return
			}
			claims, err := ParseServiceToken(secret, tok)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if !claims.HasScope(scope) {
				httpjson.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(authctx.WithService(r.Context(), claims.Subject)))
		})
	}
}
