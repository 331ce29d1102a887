package serverutils

import (
	"errors"

	"career-chat-be/internal/pkg/apperror"
	"career-chat-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindAuthFailure:
		return fiber.StatusUnauthorized
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindProvider:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware renders any error returned further down the chain
// with the standard response envelope. Server-side failures are logged and
// shown to the client without their cause.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		message := err.Error()
		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": code,
				"error":  err.Error(),
			})
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Message != "" {
				message = appErr.Message
			} else {
				message = "internal server error"
			}
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
