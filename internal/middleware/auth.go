package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user ID or guest session ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for the authenticated user's email.
	EmailKey contextKey = "email"
	// GuestKey is the context key marking a guest session.
	GuestKey contextKey = "guest"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// IsGuest reports whether the request was authenticated with a guest token.
func IsGuest(ctx context.Context) bool {
	guest, _ := ctx.Value(GuestKey).(bool)
	return guest
}

// WithClaims returns a copy of ctx carrying the identity in claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, EmailKey, claims.Email)
	return context.WithValue(ctx, GuestKey, claims.Guest)
}

// RequireUser returns the caller's user ID, or an Unauthenticated error when
// the request carried no valid token. Handlers behind OptionalAuth call it for
// the procedures that need an identity.
func RequireUser(ctx context.Context) (string, error) {
	userID := GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// OptionalAuth returns an interceptor that validates the token if present but
// lets anonymous requests through. Invalid tokens are treated as absent.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, ok := bearerToken(req.Header().Get("Authorization")); ok {
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithClaims(ctx, claims)
				}
			}
			return next(ctx, req)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
