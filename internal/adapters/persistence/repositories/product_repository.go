package repositories

import (
	"context"
	"time"

	"loanlink/internal/adapters/persistence/models"
	"loanlink/internal/core/domain"

	"gorm.io/gorm"
)

// productRepository implements ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new loan product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new loan product
func (r *productRepository) Create(ctx context.Context, product *domain.LoanProduct) error {
	row := models.ProductFromDomain(product)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(err)
	}
	product.CreatedAt = row.CreatedAt
	product.UpdatedAt = row.UpdatedAt
	return nil
}

// GetByID gets a loan product by ID
func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.LoanProduct, error) {
	var row models.LoanProduct
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.ToDomain(), nil
}

// List lists all loan products, newest first
func (r *productRepository) List(ctx context.Context) ([]*domain.LoanProduct, error) {
	return r.find(r.db.WithContext(ctx).Order("created_at DESC"))
}

// Latest lists the newest loan products
func (r *productRepository) Latest(ctx context.Context, limit int) ([]*domain.LoanProduct, error) {
	return r.find(r.db.WithContext(ctx).Order("created_at DESC").Limit(limit))
}

func (r *productRepository) find(q *gorm.DB) ([]*domain.LoanProduct, error) {
	var rows []*models.LoanProduct
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]*domain.LoanProduct, len(rows))
	for i, row := range rows {
		products[i] = row.ToDomain()
	}
	return products, nil
}

// Update applies a partial update of descriptive fields
func (r *productRepository) Update(ctx context.Context, id string, patch ProductPatch) error {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.InterestRate != nil {
		updates["interest_rate"] = *patch.InterestRate
	}
	if patch.MaxAmount != nil {
		updates["max_amount"] = *patch.MaxAmount
	}
	if patch.ImageURL != nil {
		updates["image_url"] = *patch.ImageURL
	}
	if len(updates) == 0 {
		return r.exists(ctx, id)
	}

	result := r.db.WithContext(ctx).Model(&models.LoanProduct{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.exists(ctx, id)
	}
	return nil
}

// MarkApproved sets the approved marker. The first approval time is kept.
func (r *productRepository) MarkApproved(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.LoanProduct{}).
		Where("id = ? AND approved = ?", id, false).
		Updates(map[string]interface{}{"approved": true, "approved_at": at})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.exists(ctx, id)
	}
	return nil
}

// Count counts all loan products
func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LoanProduct{}).Count(&count).Error
	return count, err
}

func (r *productRepository) exists(ctx context.Context, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LoanProduct{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrRecordNotFound
	}
	return nil
}
