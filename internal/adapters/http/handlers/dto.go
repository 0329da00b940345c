package handlers

import (
	"time"

	"loanlink/internal/core/domain"
)

// AccountResponse is the public view of an account
type AccountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAccountResponse(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		PhotoURL:  a.PhotoURL,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ProductResponse is the public view of a loan product
type ProductResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	InterestRate float64    `json:"interest_rate"`
	MaxAmount    float64    `json:"max_amount"`
	ImageURL     string     `json:"image_url,omitempty"`
	Approved     bool       `json:"approved"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toProductResponse(p *domain.LoanProduct) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		InterestRate: p.InterestRate,
		MaxAmount:    p.MaxAmount,
		ImageURL:     p.ImageURL,
		Approved:     p.Approved,
		ApprovedAt:   p.ApprovedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toProductResponses(products []*domain.LoanProduct) []*ProductResponse {
	out := make([]*ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}

// ApplicationResponse is the view of a loan application
type ApplicationResponse struct {
	ID           string            `json:"id"`
	OwnerEmail   string            `json:"owner_email"`
	ProductID    string            `json:"product_id"`
	ProductTitle string            `json:"product_title"`
	Amount       float64           `json:"amount"`
	Purpose      string            `json:"purpose,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	Status       string            `json:"status"`
	AppliedAt    time.Time         `json:"applied_at"`
	DecidedAt    *time.Time        `json:"decided_at,omitempty"`
	DecidedBy    string            `json:"decided_by,omitempty"`
	DecisionNote string            `json:"decision_note,omitempty"`
}

func toApplicationResponse(a *domain.LoanApplication) *ApplicationResponse {
	return &ApplicationResponse{
		ID:           a.ID,
		OwnerEmail:   a.OwnerEmail,
		ProductID:    a.ProductID,
		ProductTitle: a.ProductTitle,
		Amount:       a.Amount,
		Purpose:      a.Purpose,
		Details:      a.Details,
		Status:       string(a.Status),
		AppliedAt:    a.AppliedAt,
		DecidedAt:    a.DecidedAt,
		DecidedBy:    a.DecidedBy,
		DecisionNote: a.DecisionNote,
	}
}

func toApplicationResponses(apps []*domain.LoanApplication) []*ApplicationResponse {
	out := make([]*ApplicationResponse, len(apps))
	for i, a := range apps {
		out[i] = toApplicationResponse(a)
	}
	return out
}
