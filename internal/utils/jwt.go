package utils

import (
	"errors"
	"strconv"
	"time"

	"dcip/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "dcip-api"

// TokenIssuer signs and parses HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed access token for p and its expiry.
func (t *TokenIssuer) Issue(p *models.Principal) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}

	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := models.PrincipalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   string(p.Kind) + ":" + strconv.FormatUint(uint64(p.ID), 10),
		},
		PrincipalID:  p.ID,
		Kind:         p.Kind,
		Email:        p.Email,
		TokenVersion: p.TokenVersion,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates signature, expiry and issuer and returns the claims.
func (t *TokenIssuer) Parse(tokenStr string) (*models.PrincipalClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &models.PrincipalClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.PrincipalClaims)
	if !ok || !token.Valid || !claims.Kind.Valid() || claims.PrincipalID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
