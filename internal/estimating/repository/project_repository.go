package repository

import (
	"context"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	err := r.db.WithContext(ctx).
		Preload("Estimates", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, created_at")
		}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &p, nil
}

func (r *ProjectRepository) List(ctx context.Context, status, search string, offset, limit int) ([]entity.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Project{}).Where("is_active = ?", true)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("project_name LIKE ? OR client_name LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []entity.Project
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

func (r *ProjectRepository) Update(ctx context.Context, p *entity.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// DeleteCascade removes the project and everything under it in one
// transaction, children before parents.
func (r *ProjectRepository) DeleteCascade(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var estimateIDs []string
		if err := tx.Model(&entity.Estimate{}).Where("project_id = ?", id).Pluck("id", &estimateIDs).Error; err != nil {
			return err
		}

		if len(estimateIDs) > 0 {
			var assemblyIDs []string
			if err := tx.Model(&entity.Assembly{}).Where("estimate_id IN ?", estimateIDs).Pluck("id", &assemblyIDs).Error; err != nil {
				return err
			}
			if len(assemblyIDs) > 0 {
				if err := tx.Delete(&entity.AssemblyPart{}, "assembly_id IN ?", assemblyIDs).Error; err != nil {
					return err
				}
				if err := tx.Delete(&entity.Assembly{}, "id IN ?", assemblyIDs).Error; err != nil {
					return err
				}
			}
			if err := tx.Delete(&entity.EstimateComponent{}, "estimate_id IN ?", estimateIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&entity.EstimateRevision{}, "estimate_id IN ?", estimateIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&entity.Estimate{}, "id IN ?", estimateIDs).Error; err != nil {
				return err
			}
		}

		var motorIDs []string
		if err := tx.Model(&entity.Motor{}).Where("project_id = ?", id).Pluck("id", &motorIDs).Error; err != nil {
			return err
		}
		if len(motorIDs) > 0 {
			if err := tx.Delete(&entity.MotorRevision{}, "motor_id IN ?", motorIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&entity.Motor{}, "id IN ?", motorIDs).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&entity.Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
