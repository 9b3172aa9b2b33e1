// Package middleware provides HTTP middleware components for the application.
// It includes API key checks, authentication, authorization and the central
// error handler used with the fiber web framework.
package middleware

import (
	"context"
	"strings"

	"dcip/internal/access"
	apperr "dcip/internal/errors"
	"dcip/internal/models"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TokenParser verifies a signed access token.
type TokenParser interface {
	Parse(token string) (*models.PrincipalClaims, error)
}

// PrincipalResolver turns verified claims into the request identity.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, claims *models.PrincipalClaims) (*models.Principal, error)
}

// AuthMiddleware validates bearer tokens and attaches the principal to the
// request context.
type AuthMiddleware struct {
	tokens   TokenParser
	resolver PrincipalResolver
	log      *zap.Logger
}

func NewAuthMiddleware(tokens TokenParser, resolver PrincipalResolver, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		resolver: resolver,
		log:      log.Named("auth"),
	}
}

// Handler fails every authentication problem with the same error; the
// reason only goes to the debug log.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		m.log.Debug("missing authorization header", zap.String("path", c.Path()))
		return apperr.ErrInvalidToken
	}

	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		m.log.Debug("invalid authorization format", zap.String("path", c.Path()))
		return apperr.ErrInvalidToken
	}

	claims, err := m.tokens.Parse(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		m.log.Debug("token rejected", zap.Error(err))
		return apperr.ErrInvalidToken
	}

	principal, err := m.resolver.ResolvePrincipal(c.UserContext(), claims)
	if err != nil {
		return err
	}

	utils.SetPrincipal(c, principal)
	return c.Next()
}

// RequirePermission rejects principals that may not perform action. It
// runs after AuthMiddleware.Handler.
func RequirePermission(action models.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := utils.GetPrincipal(c)
		if err != nil {
			return err
		}
		if err := access.Authorize(p, action); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireKind restricts a route to users or to employees.
func RequireKind(kind models.PrincipalKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := utils.GetPrincipal(c)
		if err != nil {
			return err
		}
		if p.Kind != kind {
			return apperr.ErrPermissionDenied
		}
		return c.Next()
	}
}
