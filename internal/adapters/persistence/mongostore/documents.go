package mongostore

import (
	"time"

	"loanlink/internal/core/domain"
)

type accountDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Name      string    `bson:"name"`
	PhotoURL  string    `bson:"photoURL"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *accountDoc) toDomain() (*domain.Account, error) {
	role, err := domain.ParseRole(d.Role)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:        d.ID,
		Email:     d.Email,
		Name:      d.Name,
		PhotoURL:  d.PhotoURL,
		Role:      role,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

type productDoc struct {
	ID           string     `bson:"_id"`
	Title        string     `bson:"title"`
	Description  string     `bson:"description"`
	Category     string     `bson:"category"`
	InterestRate float64    `bson:"interestRate"`
	MaxAmount    float64    `bson:"maxAmount"`
	ImageURL     string     `bson:"image"`
	Approved     bool       `bson:"approved"`
	ApprovedAt   *time.Time `bson:"approvedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
}

func (d *productDoc) toDomain() *domain.LoanProduct {
	return &domain.LoanProduct{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		Category:     d.Category,
		InterestRate: d.InterestRate,
		MaxAmount:    d.MaxAmount,
		ImageURL:     d.ImageURL,
		Approved:     d.Approved,
		ApprovedAt:   d.ApprovedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type applicationDoc struct {
	ID           string            `bson:"_id"`
	OwnerEmail   string            `bson:"ownerEmail"`
	ProductID    string            `bson:"productId"`
	ProductTitle string            `bson:"productTitle"`
	Amount       float64           `bson:"amount"`
	Purpose      string            `bson:"purpose"`
	Details      map[string]string `bson:"details,omitempty"`
	Status       string            `bson:"status"`
	AppliedAt    time.Time         `bson:"appliedAt"`
	DecidedAt    *time.Time        `bson:"decidedAt,omitempty"`
	DecidedBy    string            `bson:"decidedBy,omitempty"`
	DecisionNote string            `bson:"decisionNote,omitempty"`
}

func applicationDocFrom(a *domain.LoanApplication) *applicationDoc {
	return &applicationDoc{
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

func (d *applicationDoc) toDomain() (*domain.LoanApplication, error) {
	status, err := domain.ParseStatus(d.Status)
	if err != nil {
		return nil, err
	}
	return &domain.LoanApplication{
		ID:           d.ID,
		OwnerEmail:   d.OwnerEmail,
		ProductID:    d.ProductID,
		ProductTitle: d.ProductTitle,
		Amount:       d.Amount,
		Purpose:      d.Purpose,
		Details:      d.Details,
		Status:       status,
		AppliedAt:    d.AppliedAt,
		DecidedAt:    d.DecidedAt,
		DecidedBy:    d.DecidedBy,
		DecisionNote: d.DecisionNote,
	}, nil
}
