package middleware

import (
	"errors"
	"log"
	"strings"

	"loanlink/internal/core/domain"
	"loanlink/internal/core/services"
	"loanlink/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthedHandler receives the verified caller explicitly
type AuthedHandler func(c *fiber.Ctx, id domain.VerifiedIdentity) error

// GuardedHandler receives the verified caller and the account that passed the guard
type GuardedHandler func(c *fiber.Ctx, id domain.VerifiedIdentity, account *domain.Account) error

// Auth adapts identity verification and role guards to fiber handlers
type Auth struct {
	verifier services.IdentityVerifier
}

// NewAuth creates authentication middleware around a verifier
func NewAuth(verifier services.IdentityVerifier) *Auth {
	return &Auth{verifier: verifier}
}

// Authenticated rejects requests without a valid bearer credential
func (a *Auth) Authenticated(h AuthedHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return response.Unauthorized(c, "Access token required")
		}

		id, err := a.verifier.Verify(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				log.Printf("❌ Identity verification error: %v", err)
			}
			return response.Unauthorized(c, "Invalid or expired access token")
		}

		return h(c, id)
	}
}

// RequireRole authenticates the caller, then admits only accounts passing guard
func (a *Auth) RequireRole(guard services.Guard, h GuardedHandler) fiber.Handler {
	return a.Authenticated(func(c *fiber.Ctx, id domain.VerifiedIdentity) error {
		account, err := guard.Check(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				return response.Forbidden(c, "You don't have permission to access this resource")
			}
			log.Printf("❌ Role check failed for %s: %v", id.Email, err)
			return response.InternalServerError(c, "Internal server error")
		}
		return h(c, id, account)
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(c *fiber.Ctx) (string, bool) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
