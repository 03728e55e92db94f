package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/middleware"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindUnauthorized: fiber.StatusUnauthorized,
	apperr.KindForbidden:    fiber.StatusForbidden,
	apperr.KindInvalidState: fiber.StatusConflict,
	apperr.KindNotFound:     fiber.StatusNotFound,
	apperr.KindDuplicate:    fiber.StatusConflict,
	apperr.KindValidation:   fiber.StatusUnprocessableEntity,
	apperr.KindInternal:     fiber.StatusInternalServerError,
}

// ErrorHandler renders every error returned by a handler in the
// {"success": false, "message": ...} envelope.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"success": false, "message": fe.Message})
		}

		var ae *apperr.Error
		if !errors.As(err, &ae) {
			log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Internal server error"})
		}

		status, ok := statusByKind[ae.Kind]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		body := fiber.Map{"success": false, "message": ae.Message, "code": ae.Kind}
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			body["message"] = "Internal server error"
		}
		if len(ae.Fields) > 0 {
			body["errors"] = ae.Fields
		}
		return c.Status(status).JSON(body)
	}
}

func ok(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "message": message, "data": data})
}

func created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": message, "data": data})
}

func principal(c *fiber.Ctx) auth.Principal {
	return middleware.PrincipalFrom(c)
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("body", "invalid request body")
	}
	return nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.NotFound("invalid " + name)
	}
	return id, nil
}

// optionalUUID parses s, treating an empty string as absent.
func optionalUUID(field, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, apperr.Validation(field, "invalid id")
	}
	return &id, nil
}

func queryInt(c *fiber.Ctx, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

func queryTime(c *fiber.Ctx, name string) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, apperr.Validation(name, "must be an RFC 3339 timestamp")
	}
	return t, nil
}
