package handlers

import (
	"errors"
	"net/url"

	"loanlink/internal/core/domain"
	"loanlink/internal/core/services"
	"loanlink/internal/pkg/pagination"
	"loanlink/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles account registration and role management endpoints
type UserHandler struct {
	registry *services.UserRegistry
}

// NewUserHandler creates a new user handler
func NewUserHandler(registry *services.UserRegistry) *UserHandler {
	return &UserHandler{registry: registry}
}

// RegisterRequest is the self-registration body
type RegisterRequest struct {
	Email    string `json:"email" example:"borrower@example.com"`
	Name     string `json:"name" example:"Jane Doe"`
	PhotoURL string `json:"photo_url" example:"https://example.com/me.png"`
	Role     string `json:"role" example:"borrower"`
}

// SetRoleRequest is the body for an explicit role change
type SetRoleRequest struct {
	Role string `json:"role" example:"manager"`
}

// Register handles account registration
// @Summary Register account
// @Description Create an account for an email. Registering an existing email returns the stored account unchanged.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account details"
// @Success 200 {object} response.Response "Account already existed"
// @Success 201 {object} response.Response "Account created"
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [post]
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	account, created, err := h.registry.Register(c.UserContext(), services.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
		Role:     req.Role,
	})
	if err != nil {
		return writeError(c, err, "register account")
	}

	if created {
		return response.Created(c, "Account registered", toAccountResponse(account))
	}
	return response.Success(c, "Account already registered", toAccountResponse(account))
}

// ListUsers handles listing all accounts
// @Summary List accounts
// @Description Paginated list of all accounts (admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx, _ domain.VerifiedIdentity, _ *domain.Account) error {
	p, err := pagination.FromQuery(c)
	if err != nil {
		return response.BadRequest(c, "page and limit must be integers")
	}

	accounts, total, err := h.registry.List(c.UserContext(), p.Offset, p.Limit)
	if err != nil {
		return writeError(c, err, "list accounts")
	}

	items := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		items[i] = toAccountResponse(a)
	}
	return response.Success(c, "Users retrieved successfully", pagination.NewResponse(items, p, total))
}

// GetRole handles role lookup by email
// @Summary Get role by email
// @Description Look up the role of a registered account
// @Tags Users
// @Produce json
// @Param email path string true "Account email"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/role/{email} [get]
func (h *UserHandler) GetRole(c *fiber.Ctx) error {
	// fiber leaves path params escaped; clients send encodeURIComponent(email)
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return response.BadRequest(c, "Invalid email")
	}
	role, err := h.registry.RoleOf(c.UserContext(), email)
	if err != nil {
		return writeError(c, err, "lookup role")
	}
	return response.Success(c, "Role retrieved", fiber.Map{
		"email": domain.NormalizeEmail(email),
		"role":  role,
	})
}

// MakeManager handles elevating an account to manager
// @Summary Make manager
// @Description Set an account's role to manager. Repeating the call is a no-op.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/make-manager/{id} [patch]
func (h *UserHandler) MakeManager(c *fiber.Ctx, _ domain.VerifiedIdentity, _ *domain.Account) error {
	return h.elevate(c, c.Params("id"), domain.RoleManager)
}

// SetRole handles an explicit role change
// @Summary Set role
// @Description Overwrite an account's role
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param request body SetRoleRequest true "New role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/role [patch]
func (h *UserHandler) SetRole(c *fiber.Ctx, _ domain.VerifiedIdentity, _ *domain.Account) error {
	var req SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	return h.elevate(c, c.Params("id"), role)
}

func (h *UserHandler) elevate(c *fiber.Ctx, accountID string, role domain.Role) error {
	account, err := h.registry.Elevate(c.UserContext(), accountID, role)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return writeError(c, err, "elevate account")
	}
	return response.Success(c, "Role updated", toAccountResponse(account))
}
