// Package middleware provides HTTP middleware for authenticating API clients.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is the package's own context key type so values set here
// cannot collide with keys from other packages.
type ContextKey string

// clientIDKey is the context key for storing the authenticated client ID.
const clientIDKey ContextKey = "clientID"

// TokenValidator checks a bearer token and returns its claims. Keeping it
// an interface here means this package never imports a JWT library.
type TokenValidator interface {
	ValidateToken(tokenString string) (ClientIDGetter, error)
}

// ClientIDGetter is an interface for extracting the client identity from
// token claims.
type ClientIDGetter interface {
	GetClientID() string
}

// KeyVerifier is an interface for checking static API keys presented in
// the X-API-Key header. It returns the name the key was registered under.
type KeyVerifier interface {
	VerifyAPIKey(key string) (subject string, ok bool)
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// AuthMiddleware creates middleware that authenticates requests and adds
// the client ID to the request context. A request may authenticate with
// either an X-API-Key header (when keys is non-nil) or a Bearer token
// (when tokens is non-nil); requests presenting neither are rejected.
func AuthMiddleware(tokens TokenValidator, keys KeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Static API key first: cheaper to check and unambiguous.
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				if keys == nil {
					unauthorized(w)
					return
				}
				subject, ok := keys.VerifyAPIKey(apiKey)
				if !ok {
					unauthorized(w)
					return
				}
				ctx := context.WithValue(r.Context(), clientIDKey, subject)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || tokens == nil {
				unauthorized(w)
				return
			}

			// The scheme comparison is case-insensitive per RFC 7235.
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w)
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				unauthorized(w)
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), clientIDKey, claims.GetClientID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientID extracts the authenticated client ID from the request context.
func GetClientID(r *http.Request) (string, error) {
	clientID, ok := r.Context().Value(clientIDKey).(string)
	if !ok || clientID == "" {
		return "", fmt.Errorf("client ID not found in request context")
	}
	return clientID, nil
}
