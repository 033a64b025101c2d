// Package auth issues and verifies the bearer tokens used by the machine API.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/meeting-rooms/internal/application"
)

const issuerName = "meeting-rooms"

// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
// It wraps application.ErrUnauthorized.
var ErrInvalidToken = fmt.Errorf("auth: invalid token: %w", application.ErrUnauthorized)

type jwtClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Admin    bool   `json:"admin,omitempty"`
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. now defaults to time.Now.
func NewIssuer(secret string, ttl time.Duration, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue returns a signed token for principal and its expiry.
func (i *Issuer) Issue(principal application.Principal) (string, time.Time, error) {
	if principal.UserID <= 0 {
		return "", time.Time{}, errors.New("auth: principal has no user id")
	}
	now := i.now()
	expires := now.Add(i.ttl)
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   strconv.FormatInt(principal.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username: principal.Username,
		Admin:    principal.IsAdmin,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses token and returns the principal it was issued for.
func (i *Issuer) Verify(token string) (application.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return application.Principal{}, ErrInvalidToken
	}

	var claims jwtClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return application.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return application.Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return application.Principal{UserID: id, Username: claims.Username, IsAdmin: claims.Admin}, nil
}
