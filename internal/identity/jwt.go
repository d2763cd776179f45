package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService signs and verifies the HS256 session tokens the row store
// accepts as its bearer credential. The "sub" claim carries the user ID,
// "name" the display name.
//
// The same secret signs and verifies; rotate it by restarting the server
// with a new JWT_SECRET (outstanding sessions are invalidated, which is the
// intended effect).
type TokenService struct {
	secret []byte
}

const issuer = "snipspace"

// DefaultTokenLifetime is how long a session token stays valid. The client
// has no refresh path; an expired token means signing in again.
const DefaultTokenLifetime = 24 * time.Hour

func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("identity: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type sessionClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates a signed session token for the given user.
func (s *TokenService) Issue(userID, displayName string, lifetime time.Duration) (string, error) {
	now := time.Now()
	c := sessionClaims{
		Name: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("identity: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses a token string and returns the identity it asserts.
// jwt.WithValidMethods pins HS256 so a token claiming another algorithm is
// rejected outright.
func (s *TokenService) Validate(tokenStr string) (Static, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("identity: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Static{}, errors.New("identity: token expired")
		}
		return Static{}, fmt.Errorf("identity: invalid token: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return Static{}, errors.New("identity: invalid token claims")
	}
	if c.Subject == "" {
		return Static{}, errors.New("identity: token has no subject")
	}
	return Static{ID: c.Subject, Name: c.Name}, nil
}
