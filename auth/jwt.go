// Package auth verifies bearer tokens issued by the external identity
// provider and resolves them to a reader id. Token issuance happens
// elsewhere; only validation lives here.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/util"
)

// Verifier validates HS256 access tokens. The token subject is the
// reader id of the principal.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(conf *util.AppConfig) *Verifier {
	return &Verifier{
		secret: []byte(conf.Conf.AuthSecret),
		issuer: conf.Conf.AuthIssuer,
	}
}

// VerifyToken parses and validates a bearer token and returns the principal
// reader id.
func (v *Verifier) VerifyToken(tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != v.issuer {
		return uuid.Nil, fmt.Errorf("invalid issuer: expected %s, got %s", v.issuer, claims.Issuer)
	}

	readerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject UUID: %w", err)
	}

	return readerID, nil
}

// IssueToken signs a token for the given reader. Production tokens come
// from the identity provider; this exists for local setups and tests.
func (v *Verifier) IssueToken(readerID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   readerID.String(),
		Issuer:    v.issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
