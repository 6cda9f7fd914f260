package serverutils

import (
	"errors"

	"risk-review-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type ErrorDetail struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail ErrorDetail `json:"detail"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInvalidInput:
		return fiber.StatusUnprocessableEntity
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindGateNotMet:
		return fiber.StatusConflict
	case apperror.KindUpstreamMalformed:
		return fiber.StatusBadGateway
	case apperror.KindUpstreamThrottled:
		return fiber.StatusTooManyRequests
	case apperror.KindUpstreamUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// StatusOf returns the status ErrorHandler will answer err with.
func StatusOf(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return StatusFor(apperror.KindOf(err))
}

// ErrorHandler is the fiber.Config ErrorHandler. Every failure leaves as
// {"detail":{"error":KIND,"message":...}}.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse{Detail: ErrorDetail{
			Error:   fiberKind(fiberErr.Code),
			Message: fiberErr.Message,
		}})
	}

	kind := apperror.KindOf(err)
	message := apperror.MessageOf(err, "internal server error")
	return ctx.Status(StatusFor(kind)).JSON(ErrorResponse{Detail: ErrorDetail{
		Error:   string(kind),
		Message: message,
	}})
}

func fiberKind(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return string(apperror.KindNotFound)
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return string(apperror.KindInvalidInput)
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		return string(apperror.KindInternal)
	}
}
