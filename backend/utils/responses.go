package utils

import (
	"errors"
	"net/http"

	"coursemarket/backend/services"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse is the envelope of every successful reply.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope of every error reply.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// Error writes an error envelope; details, when given, are attached as-is.
func Error(c *fiber.Ctx, status int, err error, details ...interface{}) error {
	response := ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: err.Error(),
	}

	if len(details) > 0 && details[0] != nil {
		response.Details = details[0]
	}

	return c.Status(status).JSON(response)
}

// ValidationError replies 400 with one message per invalid field.
func ValidationError(c *fiber.Ctx, message string, fields map[string]string) error {
	response := ErrorResponse{
		Success: false,
		Error:   "Validation Error",
		Message: message,
	}
	if len(fields) > 0 {
		response.Details = fields
	}
	return c.Status(fiber.StatusBadRequest).JSON(response)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return Success(c, fiber.StatusCreated, data)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, errors.New(message))
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, errors.New(message))
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, errors.New(message))
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, errors.New(message))
}

func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, errors.New(message))
}

// BadGateway reports a failure of an upstream dependency; message is passed through.
func BadGateway(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadGateway, errors.New(message))
}

func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, errors.New(message))
}

// StatusFor maps a service error kind to its HTTP status.
func StatusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleError writes the JSON response for an error returned by a service.
// Internal errors are logged by the request logger and never leak their cause.
func HandleError(c *fiber.Ctx, err error) error {
	var serr *services.Error
	if !errors.As(err, &serr) {
		c.Locals(LocalError, err)
		return InternalServerError(c, "Internal server error")
	}

	switch serr.Kind {
	case services.KindValidation:
		return ValidationError(c, serr.Message, serr.Details)
	case services.KindInternal:
		c.Locals(LocalError, err)
		return InternalServerError(c, serr.Message)
	default:
		return Error(c, StatusFor(serr.Kind), errors.New(serr.Message))
	}
}

// LocalError is the fiber.Ctx locals key under which handlers leave an
// error for the request logger.
const LocalError = "error"
