package utils

import (
	"strconv"

	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// SetPrincipal stores the authenticated identity on the request.
func SetPrincipal(c *fiber.Ctx, p *models.Principal) {
	c.Locals(principalKey, p)
}

// GetPrincipal extracts the identity stored by the auth middleware.
func GetPrincipal(c *fiber.Ctx) (*models.Principal, error) {
	p, ok := c.Locals(principalKey).(*models.Principal)
	if !ok || p == nil {
		return nil, apperr.ErrInvalidToken
	}
	return p, nil
}

// ParamID parses a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("INVALID_ID", "invalid "+name)
	}
	return uint(id), nil
}

// BindJSON parses the body into dst, reporting malformed JSON as BadRequest.
func BindJSON(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.BadRequest("INVALID_BODY", "invalid request body")
	}
	return nil
}
