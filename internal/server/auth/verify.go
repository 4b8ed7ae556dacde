package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/timex"
)

// VerifyClaims is the payload of the short-lived token that carries an email
// address from the start of signup to onboarding.
type VerifyClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// VerifyTokens issues and checks HS256 verify tokens.
type VerifyTokens struct {
	secret []byte
	ttl    time.Duration
	now    timex.Clock
}

func NewVerifyTokens(secret []byte, ttl time.Duration, now timex.Clock) *VerifyTokens {
	if now == nil {
		now = timex.Now
	}
	return &VerifyTokens{secret: secret, ttl: ttl, now: now}
}

// TTL is how long an issued token stays valid.
func (v *VerifyTokens) TTL() time.Duration { return v.ttl }

func (v *VerifyTokens) Issue(email string) (string, error) {
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, VerifyClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
		Email: email,
	})

	tokenString, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign verify token: %w", err)
	}
	return tokenString, nil
}

// Email returns the address carried by tokenString. Expired tokens yield
// common.ErrTokenExpired, anything else unusable common.ErrInvalidToken.
func (v *VerifyTokens) Email(tokenString string) (string, error) {
	claims := &VerifyClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(v.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Email == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Email, nil
}
