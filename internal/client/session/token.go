package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiresAt decodes the payload of a JWT without verifying its signature and
// returns the exp claim. ok is false for empty or malformed tokens and for
// tokens without exp.
func ExpiresAt(token string) (exp time.Time, ok bool) {
	if token == "" {
		return time.Time{}, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
