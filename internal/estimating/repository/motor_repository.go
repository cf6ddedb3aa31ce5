package repository

import (
	"context"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"gorm.io/gorm"
)

type MotorRepository struct {
	db *gorm.DB
}

func NewMotorRepository(db *gorm.DB) *MotorRepository {
	return &MotorRepository{db: db}
}

func (r *MotorRepository) Create(ctx context.Context, m *entity.Motor) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MotorRepository) FindByID(ctx context.Context, id string) (*entity.Motor, error) {
	var m entity.Motor
	err := r.db.WithContext(ctx).
		Preload("VFDType").
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &m, nil
}

func (r *MotorRepository) ListByProject(ctx context.Context, projectID string) ([]entity.Motor, error) {
	var rows []entity.Motor
	err := r.db.WithContext(ctx).
		Preload("VFDType").
		Where("project_id = ?", projectID).
		Order("sort_order, created_at").
		Find(&rows).Error
	return rows, err
}

func (r *MotorRepository) Update(ctx context.Context, m *entity.Motor) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MotorRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.MotorRevision{}, "motor_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Motor{}, "id = ?", id).Error
	})
}

func (r *MotorRepository) CreateRevision(ctx context.Context, rev *entity.MotorRevision) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *MotorRepository) FindRevision(ctx context.Context, id string) (*entity.MotorRevision, error) {
	var rev entity.MotorRevision
	err := r.db.WithContext(ctx).First(&rev, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &rev, nil
}

func (r *MotorRepository) ListRevisions(ctx context.Context, motorID string) ([]entity.MotorRevision, error) {
	var rows []entity.MotorRevision
	err := r.db.WithContext(ctx).
		Where("motor_id = ?", motorID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindNECAmps looks up the NEC full-load table row for an HP rating.
func (r *MotorRepository) FindNECAmps(ctx context.Context, hp float64) (*entity.NECAmpRow, error) {
	var row entity.NECAmpRow
	err := r.db.WithContext(ctx).First(&row, "hp = ?", hp).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &row, nil
}

func (r *MotorRepository) ListNECAmps(ctx context.Context) ([]entity.NECAmpRow, error) {
	var rows []entity.NECAmpRow
	err := r.db.WithContext(ctx).Order("hp").Find(&rows).Error
	return rows, err
}

func (r *MotorRepository) ListVFDTypes(ctx context.Context, activeOnly bool) ([]entity.VFDType, error) {
	var rows []entity.VFDType
	query := r.db.WithContext(ctx).Order("sort_order, type_name")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *MotorRepository) CreateVFDType(ctx context.Context, v *entity.VFDType) error {
	return r.db.WithContext(ctx).Create(v).Error
}
