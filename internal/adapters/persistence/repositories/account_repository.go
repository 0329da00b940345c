package repositories

import (
	"context"

	"loanlink/internal/adapters/persistence/models"
	"loanlink/internal/core/domain"

	"gorm.io/gorm"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	row := models.AccountFromDomain(account)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(err)
	}
	account.CreatedAt = row.CreatedAt
	account.UpdatedAt = row.UpdatedAt
	return nil
}

// GetByID gets an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var row models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.ToDomain()
}

// GetByEmail gets an account by email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var row models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.ToDomain()
}

// UpdateRole overwrites the role of an account
func (r *accountRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("role", string(role))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		// MySQL reports 0 affected rows when the value is unchanged
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrRecordNotFound
		}
	}
	return nil
}

// List lists accounts with pagination
func (r *accountRepository) List(ctx context.Context, offset, limit int) ([]*domain.Account, int64, error) {
	var rows []*models.Account
	var total int64

	// Count total
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get accounts with pagination
	if err := r.db.WithContext(ctx).Order("created_at ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		a, err := row.ToDomain()
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, a)
	}
	return accounts, total, nil
}
