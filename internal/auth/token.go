// Package auth implements issuing and verifying the signed session tokens
// that assert a user's identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"platefeed/internal/models"
)

const (
	issuer   = "platefeed-api"
	audience = "platefeed-client"
)

var (
	// ErrTokenExpired indicates a structurally valid, correctly signed token
	// whose expiry has passed. Callers should prompt for re-login.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a malformed token, a bad signature, or
	// missing claims. Callers should reject outright.
	ErrTokenInvalid = errors.New("token invalid")
)

// Identity is the subject a token asserts.
type Identity struct {
	UserID uint
	Email  string
	Name   string
}

// IdentityOf returns the token identity for a user record.
func IdentityOf(u *models.User) Identity {
	return Identity{UserID: u.ID, Email: u.Email, Name: u.Name}
}

// Service issues and verifies HS256 session tokens. It is a pure function of
// its inputs plus the signing secret supplied at construction.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService returns a token service signing with the given secret. Tokens are
// valid for ttl from issuance.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be positive")
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token embedding the identity and expiry.
func (s *Service) Issue(id Identity) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", id.UserID),
		"email": id.Email,
		"name":  id.Name,
		"iss":   issuer,
		"aud":   audience,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
		"jti":   uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token, returning the embedded identity.
// An expired-but-well-formed token yields ErrTokenExpired; anything else
// that fails yields ErrTokenInvalid.
func (s *Service) Verify(tokenString string) (Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)

	token, err := parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return Identity{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrTokenInvalid
	}
	return identityFromClaims(claims)
}

// DecodeUnverified extracts the identity and expiry from a token without
// checking its signature. Clients that never hold the signing secret use this
// to inspect a locally persisted credential; the server always verifies.
func DecodeUnverified(tokenString string) (Identity, time.Time, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return Identity{}, time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, time.Time{}, ErrTokenInvalid
	}

	id, err := identityFromClaims(claims)
	if err != nil {
		return Identity{}, time.Time{}, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Identity{}, time.Time{}, ErrTokenInvalid
	}
	return id, exp.Time, nil
}

func identityFromClaims(claims jwt.MapClaims) (Identity, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, ErrTokenInvalid
	}

	var userID uint
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil || userID == 0 {
		return Identity{}, ErrTokenInvalid
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if email == "" {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{UserID: userID, Email: email, Name: name}, nil
}
