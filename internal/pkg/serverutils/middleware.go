package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ai-docqa-be/pkg/workflow"
)

// ErrorHandlerMiddleware maps domain errors that escape a handler onto the
// standard response envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		var validationErr *workflow.ValidationError
		var persistenceErr *workflow.PersistenceError
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.As(err, &validationErr):
			code = fiber.StatusBadRequest
		case errors.As(err, &persistenceErr):
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(ErrorResponse(code, message))
	}
}
