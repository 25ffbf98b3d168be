package partner

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is how long a partner token is reused after acquisition.
// The partner does not advertise a lifetime; when the token is a JWT with an
// earlier exp claim, that instant wins.
const TokenValidity = time.Hour

// authToken is the cached bearer credential
type authToken struct {
	value     string
	expiresAt time.Time
}

// validAt reports whether the token can still be used at now
func (t authToken) validAt(now time.Time) bool {
	return t.value != "" && now.Before(t.expiresAt)
}

// tokenExpiry returns the instant a token acquired at acquiredAt stops being reused.
// A JWT that is already expired is not reused at all.
// The token's signature is not checked; only the partner can verify it.
func tokenExpiry(token string, acquiredAt time.Time) time.Time {
	expiresAt := acquiredAt.Add(TokenValidity)

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return expiresAt
	}
	if claims.ExpiresAt == nil {
		return expiresAt
	}
	exp := claims.ExpiresAt.Time
	if !exp.After(acquiredAt) {
		return acquiredAt
	}
	if exp.Before(expiresAt) {
		return exp
	}
	return expiresAt
}
