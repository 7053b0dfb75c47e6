// Package auth turns bearer tokens into the caller's identity.
//
// Tokens are HS256 JWTs minted by the identity service. The engine trusts the
// user id and roles they carry and performs no authentication of its own.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/francescopitzalis1989/Renthubber/models"
)

// ErrNoIdentity is returned when a request carries no usable token.
var ErrNoIdentity = errors.New("missing or invalid bearer token")

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Roles  models.Roles
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool { return id.Roles.Has(models.RoleAdmin) }

type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Verifier validates tokens.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses a raw token into an Identity.
func (v *Verifier) Verify(raw string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrNoIdentity, err)
	}
	if claims.UserID == "" {
		return Identity{}, fmt.Errorf("%w: token has no user_id", ErrNoIdentity)
	}
	roles, err := models.ParseRoles(claims.Roles)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrNoIdentity, err)
	}
	return Identity{UserID: claims.UserID, Roles: roles}, nil
}

// FromRequest reads the Authorization: Bearer header.
func (v *Verifier) FromRequest(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if header == "" || raw == header {
		return Identity{}, ErrNoIdentity
	}
	return v.Verify(raw)
}

// Issuer mints tokens. Production tokens come from the identity service;
// this is for local development and tests.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for id.
func (i *Issuer) Issue(id Identity) (string, error) {
	roles := make([]string, len(id.Roles))
	for n, r := range id.Roles {
		roles[n] = string(r)
	}
	now := i.now()
	claims := &Claims{
		UserID: id.UserID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	return signed, nil
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
