package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session token claims issued at sign-in.
type Claims struct {
	Plan string `json:"plan"`
	jwt.RegisteredClaims
}

type userKey string

const userIDKey userKey = "user_id"

const tokenIssuer = "tiktok-genius"

// SignToken issues an HS256 session token for the account.
func SignToken(secret, accountID, plan string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Plan: plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken parses and validates a session token.
func VerifyToken(secret, token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}

// AuthJWT requires a valid bearer token and places the account ID in the
// request context.
func AuthJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			claims, err := VerifyToken(secret, token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.Subject)))
		})
	}
}

// Identify resolves a bearer token when one is present but lets anonymous
// requests through, so one endpoint can serve guests and accounts. A token
// that is present but invalid is still rejected.
func Identify(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := VerifyToken(secret, token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.Subject)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// UserIDFromContext returns the authenticated account ID, empty for guests.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithUserID attaches an account ID, mainly for tests.
func ContextWithUserID(ctx context.Context, accountID string) context.Context {
	if strings.TrimSpace(accountID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, accountID)
}
