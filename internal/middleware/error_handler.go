package middleware

import (
	"errors"

	"staysync-backend/internal/pkg/errs"
	"staysync-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. It maps the engine's error
// taxonomy onto HTTP status codes and returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	details := map[string]interface{}{}

	var fiberErr *fiber.Error
	var apiErr *errs.ExternalAPIError
	var valErr *errs.ValidationError

	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case errors.As(err, &apiErr):
		code = fiber.StatusBadGateway
		message = "Upstream API failure"
		details["op"] = apiErr.Op
		if apiErr.StatusCode != 0 {
			details["upstream_status"] = apiErr.StatusCode
		}
	case errors.As(err, &valErr):
		code = fiber.StatusUnprocessableEntity
		message = valErr.Error()
	}

	return response.Error(c, message, code, details)
}
