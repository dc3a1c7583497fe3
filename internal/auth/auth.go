package auth

import (
	"time"

	"curbside/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// Role distinguishes the two sides of the marketplace.
type Role string

const (
	RoleCustomer Role = "customer"
	RolePartner  Role = "partner"
)

// Identity is the authenticated caller of an operation. It is resolved
// once at the edge and passed explicitly into every service call; no
// ambient "current user" state exists.
type Identity struct {
	UserID int64
	Role   Role
}

// IsPartner reports whether the identity belongs to a partner account.
func (i Identity) IsPartner() bool {
	return i.Role == RolePartner
}

// Verifier validates bearer tokens and resolves them to identities.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// Tokens issues and verifies HMAC-signed JWTs. Session issuance itself
// lives outside this core; Issue exists for tooling and tests.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokens creates a token issuer/verifier with the given HMAC secret.
func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue signs a token for the given identity.
func (t *Tokens) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  id.UserID,
		"role": string(id.Role),
		"iss":  t.issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates a raw token and returns the identity it
// carries. Any failure maps to the Unauthorized taxonomy.
func (t *Tokens) Verify(raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithLeeway(30*time.Second)) // small clock skew
	if err != nil || !token.Valid {
		return Identity{}, model.ErrUnauthorised
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, model.ErrUnauthorised
	}

	if iss, _ := claims["iss"].(string); iss != t.issuer {
		return Identity{}, model.ErrUnauthorised
	}

	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return Identity{}, model.ErrUnauthorised
	}

	role, _ := claims["role"].(string)
	switch Role(role) {
	case RoleCustomer, RolePartner:
	default:
		return Identity{}, model.ErrUnauthorised
	}

	return Identity{UserID: int64(sub), Role: Role(role)}, nil
}
