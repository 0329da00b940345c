package handlers

import (
	"strconv"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"
	"loanlink/internal/core/services"
	"loanlink/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles the loan product catalog
type LoanHandler struct {
	catalog *services.LoanCatalog
}

// NewLoanHandler creates a new catalog handler
func NewLoanHandler(catalog *services.LoanCatalog) *LoanHandler {
	return &LoanHandler{catalog: catalog}
}

// CreateLoanRequest is the body for a new catalog entry
type CreateLoanRequest struct {
	Title        string  `json:"title" example:"Home loan"`
	Description  string  `json:"description" example:"Up to 30 years"`
	Category     string  `json:"category" example:"mortgage"`
	InterestRate float64 `json:"interest_rate" example:"4.5"`
	MaxAmount    float64 `json:"max_amount" example:"500000"`
	ImageURL     string  `json:"image_url" example:"https://example.com/home.png"`
}

// UpdateLoanRequest carries only the fields to change
type UpdateLoanRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	InterestRate *float64 `json:"interest_rate"`
	MaxAmount    *float64 `json:"max_amount"`
	ImageURL     *string  `json:"image_url"`
}

// List handles listing all loan products
// @Summary List loan products
// @Tags Loans
// @Produce json
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	products, err := h.catalog.List(c.UserContext())
	if err != nil {
		return writeError(c, err, "list products")
	}
	return response.Success(c, "Loans retrieved", toProductResponses(products))
}

// Latest handles the most recent products
// @Summary Latest loan products
// @Description Most recently created products, newest first. The limit is clamped to 1..50.
// @Tags Loans
// @Produce json
// @Param limit query int false "Number of products" default(6)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /loans/latest [get]
func (h *LoanHandler) Latest(c *fiber.Ctx) error {
	n := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return response.BadRequest(c, "limit must be an integer")
		}
		n = v
	}

	products, err := h.catalog.Latest(c.UserContext(), n)
	if err != nil {
		return writeError(c, err, "latest products")
	}
	return response.Success(c, "Latest loans retrieved", toProductResponses(products))
}

// Get handles product detail
// @Summary Get loan product
// @Tags Loans
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	product, err := h.catalog.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err, "get product")
	}
	return response.Success(c, "Loan retrieved", toProductResponse(product))
}

// Create handles adding a catalog entry
// @Summary Create loan product
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateLoanRequest true "Product"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Create(c *fiber.Ctx, _ domain.VerifiedIdentity, _ *domain.Account) error {
	var req CreateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.catalog.Create(c.UserContext(), services.CreateProductInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		InterestRate: req.InterestRate,
		MaxAmount:    req.MaxAmount,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		return writeError(c, err, "create product")
	}
	return response.Created(c, "Loan created", toProductResponse(product))
}

// Update handles changing descriptive fields
// @Summary Update loan product
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body UpdateLoanRequest true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [patch]
func (h *LoanHandler) Update(c *fiber.Ctx, _ domain.VerifiedIdentity, _ *domain.Account) error {
	var req UpdateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.catalog.Update(c.UserContext(), c.Params("id"), repositories.ProductPatch{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		InterestRate: req.InterestRate,
		MaxAmount:    req.MaxAmount,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		return writeError(c, err, "update product")
	}
	return response.Success(c, "Loan updated", toProductResponse(product))
}

// Approve handles setting the approved marker on a product
// @Summary Approve loan product
// @Description Marks a catalog entry as approved. Unrelated to application decisions.
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/approve [patch]
func (h *LoanHandler) Approve(c *fiber.Ctx, _ domain.VerifiedIdentity, _ *domain.Account) error {
	product, err := h.catalog.MarkApproved(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err, "approve product")
	}
	return response.Success(c, "Loan approved", toProductResponse(product))
}
