// Package auth issues and verifies the bearer tokens handed out at login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"mealmate/render"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "mealmate"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the token claims. Subject holds the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens. Its key can be replaced at runtime
// when the configuration is reloaded.
type Issuer struct {
	mu     sync.RWMutex
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	i := &Issuer{now: time.Now}
	i.Reset(secret, ttl)
	return i
}

// Reset replaces the signing key and token lifetime. Tokens signed with the
// old key stop validating.
func (i *Issuer) Reset(secret string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	i.mu.Lock()
	i.secret = []byte(secret)
	i.ttl = ttl
	i.mu.Unlock()
}

// Issue returns a signed token for the user.
func (i *Issuer) Issue(userID, email string) (string, error) {
	i.mu.RLock()
	secret, ttl := i.secret, i.ttl
	i.mu.RUnlock()
	if len(secret) == 0 {
		return "", fmt.Errorf("jwt secret is not configured")
	}

	now := i.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	i.mu.RLock()
	secret := i.secret
	i.mu.RUnlock()

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims, nil
}

type ctxKey struct{}

// UserID returns the authenticated user id stored by RequireUser.
func UserID(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	if !ok {
		return "", false
	}
	return c.Subject, true
}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// RequireUser は Authorization: Bearer トークンを検証し、失敗時は 401 を返します。
func RequireUser(i *Issuer, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			render.JSONError(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}
		claims, err := i.Parse(token)
		if err != nil {
			render.JSONError(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}

// RequireAdmin は RequireUser に加えて、利用者IDが admins() に含まれることを確認します。
// admins はリクエストごとに呼ばれるので、設定の再読み込みがそのまま反映されます。
func RequireAdmin(i *Issuer, admins func() []string, next http.HandlerFunc) http.HandlerFunc {
	return RequireUser(i, func(w http.ResponseWriter, r *http.Request) {
		uid, _ := UserID(r.Context())
		if !slices.Contains(admins(), uid) {
			render.JSONError(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}
