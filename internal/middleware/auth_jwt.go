package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"billing/internal/domain"
)

type TokenClaims struct {
	Sub      string `json:"sub"`
	Role     string `json:"role,omitempty"`
	Email    string `json:"email,omitempty"`
	Locale   string `json:"locale,omitempty"`
	Exp      int64  `json:"exp"`
	Issuer   string `json:"iss,omitempty"`
	Audience string `json:"aud,omitempty"`
}

type userKey string

const (
	userIDKey userKey = "user_id"
	roleKey   userKey = "role"
)

// registeredClaims is the wire form of TokenClaims.
type registeredClaims struct {
	Role   string `json:"role,omitempty"`
	Email  string `json:"email,omitempty"`
	Locale string `json:"locale,omitempty"`
	jwt.RegisteredClaims
}

// SignJWT issues an HS256 token. A zero Exp yields a token without expiry.
func SignJWT(secret string, claims TokenClaims) (string, error) {
	rc := registeredClaims{
		Role:   claims.Role,
		Email:  claims.Email,
		Locale: claims.Locale,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: claims.Sub,
			Issuer:  claims.Issuer,
		},
	}
	if claims.Exp != 0 {
		rc.ExpiresAt = jwt.NewNumericDate(time.Unix(claims.Exp, 0))
	}
	if claims.Audience != "" {
		rc.Audience = jwt.ClaimStrings{claims.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString([]byte(secret))
}

// VerifyJWT checks the signature and expiry of an HS256 token.
func VerifyJWT(secret, token string) (*TokenClaims, error) {
	var rc registeredClaims
	_, err := jwt.ParseWithClaims(token, &rc, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rc.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	claims := &TokenClaims{
		Sub:    rc.Subject,
		Role:   rc.Role,
		Email:  rc.Email,
		Locale: rc.Locale,
		Issuer: rc.Issuer,
	}
	if rc.ExpiresAt != nil {
		claims.Exp = rc.ExpiresAt.Unix()
	}
	if len(rc.Audience) > 0 {
		claims.Audience = rc.Audience[0]
	}
	return claims, nil
}

// AuthJWT authenticates bearer tokens and stores the subject and role in the
// request context.
func AuthJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing authorization")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid authorization")
				return
			}
			claims, err := VerifyJWT(secret, strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			role := domain.UserRoleUser
			if domain.UserRole(claims.Role) == domain.UserRoleAdmin {
				role = domain.UserRoleAdmin
			}
			ctx := context.WithValue(r.Context(), userIDKey, claims.Sub)
			ctx = context.WithValue(ctx, roleKey, role)
			if claims.Locale != "" {
				ctx = context.WithValue(ctx, LocaleKey, normalizeLocale(claims.Locale))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated users lacking role.
func RequireRole(role domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				writeError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) domain.UserRole {
	if v, ok := ctx.Value(roleKey).(domain.UserRole); ok {
		return v
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}

func ContextWithRole(ctx context.Context, role domain.UserRole) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
