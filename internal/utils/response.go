package utils

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"

	"kobopay/internal/errors"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// Created sends a JSON response with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, data)
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"error": message})
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusUnauthorized, fiber.Map{"error": message})
}

// Forbidden sends a JSON error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusForbidden, fiber.Map{"error": message})
}

// NotFound sends a JSON error response with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusNotFound, fiber.Map{"error": message})
}

// Conflict sends a JSON error response with status 409.
func Conflict(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusConflict, fiber.Map{"error": message})
}

// InternalError sends a JSON error response with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusInternalServerError, fiber.Map{"error": message})
}

// BadGateway sends a JSON error response with status 502.
func BadGateway(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadGateway, fiber.Map{"error": message})
}

// DomainErrorResponse maps a service error onto the HTTP taxonomy.
// Validation and business-rule violations come back as 400s naming the
// field or code; everything unrecognized is a 500 with no detail.
func DomainErrorResponse(c *fiber.Ctx, err error) error {
	var vErr *errors.ValidationError
	if stderrors.As(err, &vErr) {
		return Respond(c, fiber.StatusBadRequest, fiber.Map{
			"error": vErr.Message,
			"field": vErr.Field,
		})
	}

	var dErr *errors.DomainError
	if stderrors.As(err, &dErr) {
		switch dErr {
		case errors.ErrIntentNotFound, errors.ErrWalletNotFound:
			return NotFound(c, dErr.Message)
		case errors.ErrInvalidSignature:
			return Unauthorized(c, dErr.Message)
		case errors.ErrInvalidTransition:
			return Conflict(c, dErr.Message)
		default:
			return Respond(c, fiber.StatusBadRequest, fiber.Map{
				"error": dErr.Message,
				"code":  dErr.Code,
			})
		}
	}

	return InternalError(c, "internal server error")
}
