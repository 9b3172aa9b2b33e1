package middleware

import (
	"crypto/subtle"

	apperr "dcip/internal/errors"

	"github.com/gofiber/fiber/v2"
)

const APIKeyHeader = "X-API-Key"

// APIKey rejects requests that do not carry the static client key.
func APIKey(key string) fiber.Handler {
	expected := []byte(key)
	return func(c *fiber.Ctx) error {
		got := []byte(c.Get(APIKeyHeader))
		if len(got) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			return apperr.ErrInvalidAPIKey
		}
		return c.Next()
	}
}
