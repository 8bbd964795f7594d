package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the access token claims issued by the marketplace's auth
// service. The subject is the user id.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Caller is the authenticated user behind a request.
type Caller struct {
	UserID string
	Admin  bool
}

// CanActFor reports whether c may read or move userID's money.
func (c Caller) CanActFor(userID string) bool {
	return c.Admin || (userID != "" && c.UserID == userID)
}

type callerKey struct{}

// WithCaller returns ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller Authenticate attached, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// ParseToken validates an HS256 access token and returns its caller.
func ParseToken(secret []byte, token, adminRole string) (Caller, error) {
	if len(secret) == 0 {
		return Caller{}, ErrInvalidToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Caller{}, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Caller{}, ErrInvalidToken
	}
	return Caller{UserID: claims.Subject, Admin: slices.Contains(claims.Roles, adminRole)}, nil
}

// Authenticate attaches the caller of a bearer token to the request context.
// Requests without a token pass through anonymously; handlers decide whether
// they need a caller. A bad token is rejected with 401.
func Authenticate(secret []byte, adminRole string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}
			caller, err := ParseToken(secret, token, adminRole)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected access token", "path", r.URL.Path, "error", err)
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": "invalid or expired token"})
}
