package repositories

import (
	"context"
	"time"

	"loanlink/internal/adapters/persistence/models"
	"loanlink/internal/core/domain"

	"gorm.io/gorm"
)

// applicationRepository handles loan application data access
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new loan application repository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create creates a new loan application
func (r *applicationRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	return translate(r.db.WithContext(ctx).Create(models.ApplicationFromDomain(app)).Error)
}

// GetByID gets a loan application by ID
func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.LoanApplication, error) {
	var row models.LoanApplication
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.ToDomain()
}

// Find lists loan applications matching q, newest first
func (r *applicationRepository) Find(ctx context.Context, q ApplicationQuery) ([]*domain.LoanApplication, error) {
	tx := r.db.WithContext(ctx)
	if q.OwnerEmail != "" {
		tx = tx.Where("owner_email = ?", q.OwnerEmail)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", string(q.Status))
	}

	var rows []*models.LoanApplication
	if err := tx.Order("applied_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	apps := make([]*domain.LoanApplication, 0, len(rows))
	for _, row := range rows {
		app, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// DecidePending sets the decision in a single conditional UPDATE so two
// concurrent decisions cannot both succeed.
func (r *applicationRepository) DecidePending(ctx context.Context, id string, d Decision) (*domain.LoanApplication, error) {
	decidedAt := d.DecidedAt
	result := r.db.WithContext(ctx).
		Model(&models.LoanApplication{}).
		Where("id = ? AND status = ?", id, string(domain.StatusPending)).
		Updates(map[string]interface{}{
			"status":        string(d.Status),
			"decided_at":    &decidedAt,
			"decided_by":    d.DecidedBy,
			"decision_note": d.Note,
		})
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrConditionFailed
	}
	return r.GetByID(ctx, id)
}

// DeletePendingOwned deletes a pending application owned by ownerEmail
func (r *applicationRepository) DeletePendingOwned(ctx context.Context, id, ownerEmail string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_email = ? AND status = ?", id, ownerEmail, string(domain.StatusPending)).
		Delete(&models.LoanApplication{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

// PendingStats counts pending applications and finds the oldest one
func (r *applicationRepository) PendingStats(ctx context.Context) (int64, *time.Time, error) {
	var count int64
	pending := r.db.WithContext(ctx).Model(&models.LoanApplication{}).Where("status = ?", string(domain.StatusPending))
	if err := pending.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var oldest models.LoanApplication
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.StatusPending)).
		Order("applied_at ASC").
		First(&oldest).Error
	if err != nil {
		return 0, nil, translate(err)
	}
	appliedAt := oldest.AppliedAt
	return count, &appliedAt, nil
}
