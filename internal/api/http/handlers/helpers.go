package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/starter-kit/account-service/internal/auth"
)

var validate = validator.New()

// baseBinding seeds every page render with the principal and pending flash
// messages.
func baseBinding(c *fiber.Ctx) fiber.Map {
	binding := fiber.Map{}
	if user, ok := auth.PrincipalFromContext(c); ok {
		binding["current_user"] = user
	}
	if sess, ok := auth.SessionFromContext(c); ok {
		if flashes := sess.ConsumeFlashes(); len(flashes) > 0 {
			binding["flashes"] = flashes
		}
	}
	return binding
}

// flash queues a one-time banner on the session, if one is loaded.
func flash(c *fiber.Ctx, kind, message string) {
	if sess, ok := auth.SessionFromContext(c); ok {
		sess.Flash(kind, message)
	}
}

// formErrors flattens validator output into field -> message pairs the
// templates can redisplay inline.
func formErrors(err error) map[string]any {
	details := map[string]any{}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		details["form"] = err.Error()
		return details
	}
	for _, fieldErr := range validationErrors {
		field := toSnake(fieldErr.Field())
		switch fieldErr.Tag() {
		case "required":
			details[field] = "this field is required"
		case "email":
			details[field] = "enter a valid email address"
		case "min":
			details[field] = "must be at least " + fieldErr.Param() + " characters"
		case "max":
			details[field] = "must be at most " + fieldErr.Param() + " characters"
		case "eqfield":
			details[field] = "passwords do not match"
		case "oneof":
			details[field] = "select a valid choice"
		default:
			details[field] = "invalid value"
		}
	}
	return details
}

func toSnake(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r + ('a' - 'A'))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
