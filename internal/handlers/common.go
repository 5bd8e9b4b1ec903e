package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// currentUserID reads the authenticated user's id from locals set by the JWT
// middleware.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Locals("userId")
	if raw == nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user ID format")
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user ID")
	}
	return id, nil
}

// paramUUID parses a uuid path parameter.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func failFiber(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return fail(c, e.Code, e.Message)
	}
	return fail(c, fiber.StatusInternalServerError, err.Error())
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}
