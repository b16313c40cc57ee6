package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"

	"gymstay/backend/internal/authctx"
	"gymstay/backend/internal/httpjson"
)

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// WithAuth requires a valid Firebase ID token. Missing and invalid tokens get the
// same fixed forbidden response as under-privileged callers.
func WithAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idToken, ok := bearer(r)
			if !ok {
				httpjson.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			if v == nil {
				httpjson.Error(w, http.StatusInternalServerError, "auth not configured")
				return
			}
			id, err := verify(r.Context(), v, idToken)
			if err != nil {
				httpjson.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(authctx.WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present and ignores
// missing or invalid ones.
func OptionalAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if idToken, ok := bearer(r); ok && v != nil {
				if id, err := verify(r.Context(), v, idToken); err == nil {
					r = r.WithContext(authctx.WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	return tok, tok != ""
}

func verify(ctx context.Context, v TokenVerifier, idToken string) (*authctx.Identity, error) {
	tok, err := v.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	id := &authctx.Identity{UID: tok.UID, Claims: tok.Claims, Admin: IsAdmin(tok.Claims)}
	if e, ok := tok.Claims["email"].(string); ok {
		id.Email = e
	}
	return id, nil
}

// IsAdmin checks if the user has admin role in their claims
func IsAdmin(claims map[string]any) bool {
	if claims == nil {
		return false
	}
	if admin, ok := claims["admin"].(bool); ok && admin {
		return true
	}
	if role, ok := claims["role"].(string); ok && role == "admin" {
		return true
	}
	if roles, ok := claims["roles"].([]any); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok && s == "admin" {
				return true
			}
		}
	}
	return false
}

// IsOwner checks if the user has the gym owner role. Admins count as owners.
func IsOwner(claims map[string]any) bool {
	if claims == nil {
		return false
	}
	if role, ok := claims["role"].(string); ok {
		return role == "owner" || role == "admin"
	}
	return false
}
