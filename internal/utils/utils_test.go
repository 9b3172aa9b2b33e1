package utils

import (
	"strings"
	"testing"
	"time"

	"dcip/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericCode(t *testing.T) {
	for _, n := range []int{5, 6} {
		for i := 0; i < 50; i++ {
			code := NumericCode(n)
			assert.Len(t, code, n)
			assert.NotEqual(t, byte('0'), code[0])
			assert.Empty(t, strings.Trim(code, digits))
		}
	}
	assert.Empty(t, NumericCode(0))
}

func TestSecureToken(t *testing.T) {
	a, b := SecureToken(), SecureToken()
	assert.Len(t, a, ResetTokenLength)
	assert.Regexp(t, "^[0-9a-f]+$", a)
	assert.NotEqual(t, a, b)
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	p := &models.Principal{ID: 9, Kind: models.PrincipalEmployee, Email: "a@b.co", TokenVersion: 3}

	token, exp, err := issuer.Issue(p)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.PrincipalID)
	assert.Equal(t, models.PrincipalEmployee, claims.Kind)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, "employee:9", claims.Subject)
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	p := &models.Principal{ID: 1, Kind: models.PrincipalUser}
	token, _, err := issuer.Issue(p)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenIssuer("other", time.Hour).Parse(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenIssuer("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		claims := models.PrincipalClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    tokenIssuer,
			},
			PrincipalID: 1,
			Kind:        "robot",
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = issuer.Parse(forged)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.Error(t, err)
	})
}

func TestNewPagination(t *testing.T) {
	p := NewPagination("3", "10")
	assert.Equal(t, 20, p.Offset)

	p = NewPagination("-1", "1000")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageLimit, p.Limit)

	p = NewPagination("x", "y")
	assert.Equal(t, DefaultPageLimit, p.Limit)

	p.SetTotal(41)
	assert.Equal(t, 3, p.LastPage)
}
