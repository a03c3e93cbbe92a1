// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Claims carries the standard JWT claims plus the user's identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// TokenIssuer mints and verifies stateless HS256-signed bearer tokens.
// A token stays valid until it expires or fails signature verification;
// there is no server-side revocation.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. The secret is mandatory; ttl of
// zero issues tokens without an expiry claim.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_NO_SECRET").Errorf("signing secret is required")
	}
	return &TokenIssuer{secret: secret, ttl: ttl}, nil
}

// Issue signs a token bound to the given user ID.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(t.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the signature and returns the embedded user ID.
// Any parse, signature, or expiry failure maps to ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrInvalidToken)
	}
	if !token.Valid || claims.UserID == "" {
		return "", oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrInvalidToken)
	}

	return claims.UserID, nil
}
