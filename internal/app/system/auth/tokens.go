// internal/app/system/auth/tokens.go
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Bearer tokens exist for API/mobile clients that cannot hold a cookie
// session. Tokens are HS256-signed and carry the same identity fields the
// session cookie does.

var (
	jwtSecret []byte
	jwtExpiry = 24 * time.Hour
)

// InitTokens configures bearer token signing. Called once at startup.
func InitTokens(secret string, expiry time.Duration) {
	jwtSecret = []byte(secret)
	if expiry > 0 {
		jwtExpiry = expiry
	}
}

type tokenClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken mints a signed bearer token for the user.
func IssueToken(u *SessionUser) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("token signing not configured")
	}
	now := time.Now().UTC()
	claims := tokenClaims{
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiry)),
			Issuer:    "kolo",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ParseToken validates a bearer token and returns the embedded user.
func ParseToken(raw string) (*SessionUser, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("token signing not configured")
	}
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	return &SessionUser{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// userFromBearer extracts a user from an Authorization: Bearer header,
// returning nil when the header is absent or the token invalid.
func userFromBearer(r *http.Request) *SessionUser {
	h := r.Header.Get("Authorization")
	if h == "" {
		return nil
	}
	raw, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return nil
	}
	u, err := ParseToken(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return u
}
