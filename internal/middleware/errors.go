package middleware

import (
	"errors"

	apperr "dcip/internal/errors"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is the fiber error handler. Domain errors keep their message
// and map to their kind's status; internal errors are logged with the
// request id and reach the client as a generic message.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	log = log.Named("http")
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return utils.Fail(c, fe.Code, fe.Message)
		}

		de, ok := apperr.As(err)
		if ok && de.Kind != apperr.KindInternal {
			return utils.Fail(c, de.Kind.Status(), de.Message)
		}

		log.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
