package models

import (
	"time"

	"loanlink/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Accounts
// ============================================================

// Account represents accounts table
type Account struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name      string    `gorm:"size:100" json:"name"`
	PhotoURL  string    `gorm:"size:500" json:"photo_url"`
	Role      string    `gorm:"size:20;not null;default:'borrower'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFromDomain converts a domain account to its row
func AccountFromDomain(a *domain.Account) *Account {
	return &Account{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		PhotoURL:  a.PhotoURL,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToDomain converts the row, rejecting roles outside the closed set
func (a *Account) ToDomain() (*domain.Account, error) {
	role, err := domain.ParseRole(a.Role)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		PhotoURL:  a.PhotoURL,
		Role:      role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}, nil
}

// ============================================================
// Loan catalog
// ============================================================

// LoanProduct represents loan_products table
type LoanProduct struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Category     string     `gorm:"size:100;index" json:"category"`
	InterestRate float64    `gorm:"type:decimal(5,2)" json:"interest_rate"`
	MaxAmount    float64    `gorm:"type:decimal(15,2)" json:"max_amount"`
	ImageURL     string     `gorm:"size:500" json:"image_url"`
	Approved     bool       `gorm:"default:false" json:"approved"`
	ApprovedAt   *time.Time `json:"approved_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LoanProduct) TableName() string {
	return "loan_products"
}

// ProductFromDomain converts a domain product to its row
func ProductFromDomain(p *domain.LoanProduct) *LoanProduct {
	return &LoanProduct{
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

func (p *LoanProduct) ToDomain() *domain.LoanProduct {
	return &domain.LoanProduct{
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

// ============================================================
// Loan applications
// ============================================================

// LoanApplication represents loan_applications table
type LoanApplication struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	OwnerEmail   string            `gorm:"size:191;not null;index:idx_loan_applications_owner" json:"owner_email"`
	ProductID    string            `gorm:"size:36;not null;index" json:"product_id"`
	ProductTitle string            `gorm:"size:200" json:"product_title"`
	Amount       float64           `gorm:"type:decimal(15,2);not null" json:"amount"`
	Purpose      string            `gorm:"type:text" json:"purpose"`
	Details      map[string]string `gorm:"serializer:json;type:text" json:"details"`
	Status       string            `gorm:"size:20;not null;default:'pending';index:idx_loan_applications_status" json:"status"`
	AppliedAt    time.Time         `gorm:"not null;index" json:"applied_at"`
	DecidedAt    *time.Time        `json:"decided_at"`
	DecidedBy    string            `gorm:"size:191" json:"decided_by"`
	DecisionNote string            `gorm:"type:text" json:"decision_note"`
}

func (LoanApplication) TableName() string {
	return "loan_applications"
}

// ApplicationFromDomain converts a domain application to its row
func ApplicationFromDomain(a *domain.LoanApplication) *LoanApplication {
	return &LoanApplication{
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

// ToDomain converts the row, rejecting statuses outside the closed set
func (a *LoanApplication) ToDomain() (*domain.LoanApplication, error) {
	status, err := domain.ParseStatus(a.Status)
	if err != nil {
		return nil, err
	}
	return &domain.LoanApplication{
		ID:           a.ID,
		OwnerEmail:   a.OwnerEmail,
		ProductID:    a.ProductID,
		ProductTitle: a.ProductTitle,
		Amount:       a.Amount,
		Purpose:      a.Purpose,
		Details:      a.Details,
		Status:       status,
		AppliedAt:    a.AppliedAt,
		DecidedAt:    a.DecidedAt,
		DecidedBy:    a.DecidedBy,
		DecisionNote: a.DecisionNote,
	}, nil
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&LoanProduct{},
		&LoanApplication{},
	)
}
