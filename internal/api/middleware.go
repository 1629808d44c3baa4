/**
 * @description
 * This file contains custom middleware for the HTTP router. The auth
 * middleware is the identity gateway of the service: it verifies the presented
 * bearer token and resolves it to an account identity carried on the request
 * context.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - pkg/token: HS256 token verification.
 */

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/paylink/payments-service/pkg/token"
)

// identityContextKey is a custom type for the context key to avoid collisions.
type identityContextKey string

const (
	accountIDKey identityContextKey = "accountID"
	emailKey     identityContextKey = "accountEmail"
)

// AuthMiddleware creates a middleware that verifies bearer tokens and places
// the resolved account identity on the request context.
func AuthMiddleware(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			accountID, email, err := tokens.Verify(tokenString)
			if err != nil {
				if errors.Is(err, token.ErrBadClaims) {
					writeError(w, http.StatusForbidden, "Invalid token payload")
					return
				}
				writeError(w, http.StatusForbidden, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			ctx = context.WithValue(ctx, emailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerAccountID returns the authenticated account id from the context.
func CallerAccountID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountIDKey).(uuid.UUID)
	return id, ok
}

// CallerEmail returns the authenticated identity email from the context.
func CallerEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}
