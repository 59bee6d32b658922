package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kitchen-assistant/internal/kitchen"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid access token")

// Claims are the parts of a Supabase access token the kitchen uses.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256-signed access tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the project's JWT secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify validates a token and returns the user it was issued to. Tokens
// must carry a subject and an expiry.
func (v *Verifier) Verify(tokenString string) (kitchen.User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return kitchen.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return kitchen.User{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return kitchen.User{ID: claims.Subject, Email: claims.Email}, nil
}

// Issue signs a token for u valid for ttl. Used for local development
// against the SQLite backend, where no identity provider hands out tokens.
func (v *Verifier) Issue(u kitchen.User, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// WithUser stores the authenticated user and their raw token in ctx.
func WithUser(ctx context.Context, u kitchen.User, token string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, u)
	return context.WithValue(ctx, tokenContextKey, token)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (kitchen.User, bool) {
	u, ok := ctx.Value(userContextKey).(kitchen.User)
	return u, ok
}

// TokenFromContext returns the raw bearer token of the request.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// RequireUser rejects requests without a valid bearer token and puts the
// user into the request context.
func RequireUser(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := v.Verify(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, token)))
		})
	}
}
