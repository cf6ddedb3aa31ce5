package repository

import (
	"context"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"gorm.io/gorm"
)

type LaborRateRepository struct {
	db *gorm.DB
}

func NewLaborRateRepository(db *gorm.DB) *LaborRateRepository {
	return &LaborRateRepository{db: db}
}

func (r *LaborRateRepository) Current(ctx context.Context) (*entity.LaborRate, error) {
	var rate entity.LaborRate
	err := r.db.WithContext(ctx).
		Where("is_current = ?", true).
		Order("created_at DESC").
		First(&rate).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &rate, nil
}

// Append inserts the new rate set as current and retires the previous row in
// one transaction.
func (r *LaborRateRepository) Append(ctx context.Context, rate *entity.LaborRate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.LaborRate{}).
			Where("is_current = ?", true).
			Update("is_current", false).Error; err != nil {
			return err
		}
		rate.IsCurrent = true
		return tx.Create(rate).Error
	})
}

func (r *LaborRateRepository) History(ctx context.Context, limit int) ([]entity.LaborRate, error) {
	var rows []entity.LaborRate
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}
