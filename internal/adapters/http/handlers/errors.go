package handlers

import (
	"errors"
	"log"

	"loanlink/internal/core/domain"
	"loanlink/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// writeError maps a domain error kind to its HTTP status. Anything outside
// the known kinds is logged and returned as a generic 500.
func writeError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return response.Unauthorized(c, "Authentication required")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return response.Conflict(c, err.Error())
	default:
		log.Printf("❌ %s: %v", action, err)
		return response.InternalServerError(c, "Internal server error")
	}
}
