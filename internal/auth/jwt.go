package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that parse but carry no usable
// subject.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user id in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for userID valid for ttl.
func GenerateToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", ErrInvalidToken
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secret)
}

// UserIDFromToken verifies token and returns its subject.
func UserIDFromToken(token string, secret []byte) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// SubjectFromToken returns the subject of token without verifying its
// signature. Clients use it to learn their own identity from a token
// minted by the server.
func SubjectFromToken(token string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// FromToken returns a session signed in as the subject of token.
func FromToken(token string) (*Session, error) {
	sub, err := SubjectFromToken(token)
	if err != nil {
		return nil, err
	}
	s := NewSession()
	s.SignIn(sub)
	return s, nil
}
