// Package auth verifies the bearer tokens that carry a caller's opaque
// identity. The identity is the token subject.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidSubject = errors.New("invalid token subject")
)

// HS256 issuer and verifier sharing one secret.
type JWT struct {
	secret    []byte
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
}

func NewJWT(secret, issuer, audience string, clockSkew time.Duration, now func() time.Time) *JWT {
	if now == nil {
		now = time.Now
	}
	return &JWT{
		secret:    []byte(secret),
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
		now:       now,
	}
}

type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Issue signs a token for subject valid for ttl. Used by the CLI and tests.
func (j *JWT) Issue(subject, name string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrInvalidSubject
	}
	now := j.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-j.clockSkew)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: name,
	}
	if j.audience != "" {
		claims.Audience = jwt.ClaimStrings{j.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Verify parses tokenStr and returns its subject.
func (j *JWT) Verify(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(j.clockSkew),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	if j.audience != "" {
		opts = append(opts, jwt.WithAudience(j.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", ErrInvalidSubject
	}
	return sub, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

// IdentityFromCtx returns "" for anonymous callers.
func IdentityFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}
