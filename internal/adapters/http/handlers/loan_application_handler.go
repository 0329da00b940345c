package handlers

import (
	"errors"

	"loanlink/internal/core/domain"
	"loanlink/internal/core/services"
	"loanlink/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanApplicationHandler handles the loan application lifecycle
type LoanApplicationHandler struct {
	lifecycle *services.LoanLifecycle
	registry  *services.UserRegistry
}

// NewLoanApplicationHandler creates a new application handler
func NewLoanApplicationHandler(lifecycle *services.LoanLifecycle, registry *services.UserRegistry) *LoanApplicationHandler {
	return &LoanApplicationHandler{lifecycle: lifecycle, registry: registry}
}

// SubmitRequest is the application body. Status, owner and dates sent by the
// client are not part of it and are ignored.
type SubmitRequest struct {
	LoanID  string            `json:"loan_id" example:"5b0c7e9e-1f0e-4c43-9d0f-2f1b2a3c4d5e"`
	Amount  float64           `json:"amount" example:"25000"`
	Purpose string            `json:"purpose" example:"Home renovation"`
	Details map[string]string `json:"details"`
}

// DecideRequest is the decision body
type DecideRequest struct {
	Status string `json:"status" example:"approved"`
	Note   string `json:"note" example:"Income verified"`
}

// Submit handles a new application
// @Summary Submit loan application
// @Description The application is always stored as pending and owned by the caller.
// @Tags Loan Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitRequest true "Application"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loan-applications [post]
func (h *LoanApplicationHandler) Submit(c *fiber.Ctx, id domain.VerifiedIdentity) error {
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.lifecycle.Submit(c.UserContext(), id, services.SubmitInput{
		ProductID: req.LoanID,
		Amount:    req.Amount,
		Purpose:   req.Purpose,
		Details:   req.Details,
	})
	if err != nil {
		return writeError(c, err, "submit application")
	}
	return response.Created(c, "Application submitted", toApplicationResponse(app))
}

// Mine handles listing the caller's applications
// @Summary My applications
// @Tags Loan Applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(pending, approved, rejected)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /loan-applications/mine [get]
func (h *LoanApplicationHandler) Mine(c *fiber.Ctx, id domain.VerifiedIdentity) error {
	var status domain.ApplicationStatus
	if raw := c.Query("status"); raw != "" {
		s, err := domain.ParseStatus(raw)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		status = s
	}

	apps, err := h.lifecycle.ListMine(c.UserContext(), id, status)
	if err != nil {
		return writeError(c, err, "list own applications")
	}
	return response.Success(c, "Applications retrieved", toApplicationResponses(apps))
}

// Pending handles the decision queue
// @Summary Pending applications
// @Description All pending applications, newest first (decision roles only)
// @Tags Loan Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /loan-applications/pending [get]
func (h *LoanApplicationHandler) Pending(c *fiber.Ctx, id domain.VerifiedIdentity, account *domain.Account) error {
	apps, err := h.lifecycle.ListPending(c.UserContext(), id, account.Role)
	if err != nil {
		return writeError(c, err, "list pending applications")
	}
	return response.Success(c, "Pending applications retrieved", toApplicationResponses(apps))
}

// Get handles application detail
// @Summary Get loan application
// @Description Visible to the owner and to decision roles
// @Tags Loan Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loan-applications/{id} [get]
func (h *LoanApplicationHandler) Get(c *fiber.Ctx, id domain.VerifiedIdentity) error {
	// callers without an account can still read their own applications
	role, err := h.registry.RoleOf(c.UserContext(), id.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return writeError(c, err, "lookup caller role")
	}

	app, err := h.lifecycle.Get(c.UserContext(), id, role, c.Params("id"))
	if err != nil {
		return writeError(c, err, "get application")
	}
	return response.Success(c, "Application retrieved", toApplicationResponse(app))
}

// Decide handles approving or rejecting a pending application
// @Summary Decide loan application
// @Tags Loan Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param request body DecideRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loan-applications/{id}/decide [patch]
func (h *LoanApplicationHandler) Decide(c *fiber.Ctx, id domain.VerifiedIdentity, _ *domain.Account) error {
	var req DecideRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	app, err := h.lifecycle.Decide(c.UserContext(), id, c.Params("id"), target, req.Note)
	if err != nil {
		return writeError(c, err, "decide application")
	}
	return response.Success(c, "Application "+string(app.Status), toApplicationResponse(app))
}

// Withdraw handles deleting the caller's pending application
// @Summary Withdraw loan application
// @Tags Loan Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loan-applications/{id} [delete]
func (h *LoanApplicationHandler) Withdraw(c *fiber.Ctx, id domain.VerifiedIdentity) error {
	appID := c.Params("id")
	if err := h.lifecycle.Withdraw(c.UserContext(), id, appID); err != nil {
		return writeError(c, err, "withdraw application")
	}
	return response.Success(c, "Application withdrawn", fiber.Map{"id": appID})
}
