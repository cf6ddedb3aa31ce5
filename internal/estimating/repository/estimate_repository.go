package repository

import (
	"context"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"gorm.io/gorm"
)

type EstimateRepository struct {
	db *gorm.DB
}

func NewEstimateRepository(db *gorm.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

func (r *EstimateRepository) Create(ctx context.Context, e *entity.Estimate) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// FindByID loads the estimate with its full cost tree: assemblies, their
// parts with current prices, and direct components.
func (r *EstimateRepository) FindByID(ctx context.Context, id string) (*entity.Estimate, error) {
	var e entity.Estimate
	err := r.db.WithContext(ctx).
		Preload("Assemblies", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, created_at")
		}).
		Preload("Assemblies.Parts", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, created_at")
		}).
		Preload("Assemblies.Parts.Part").
		Preload("Assemblies.Parts.Part.PriceHistory", "is_current = ?", true).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, created_at")
		}).
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &e, nil
}

func (r *EstimateRepository) ListByProject(ctx context.Context, projectID string) ([]entity.Estimate, error) {
	var rows []entity.Estimate
	err := r.db.WithContext(ctx).
		Preload("Assemblies.Parts.Part.PriceHistory", "is_current = ?", true).
		Preload("Assemblies.Parts.Part").
		Preload("Assemblies.Parts").
		Preload("Assemblies").
		Preload("Components").
		Where("project_id = ?", projectID).
		Order("sort_order, created_at").
		Find(&rows).Error
	return rows, err
}

func (r *EstimateRepository) Update(ctx context.Context, e *entity.Estimate) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *EstimateRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assemblyIDs []string
		if err := tx.Model(&entity.Assembly{}).Where("estimate_id = ?", id).Pluck("id", &assemblyIDs).Error; err != nil {
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
		if err := tx.Delete(&entity.EstimateComponent{}, "estimate_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entity.EstimateRevision{}, "estimate_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Estimate{}, "id = ?", id).Error
	})
}

func (r *EstimateRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Estimate{}).
		Where("estimate_number = ?", number).
		Count(&n).Error
	return n > 0, err
}

func (r *EstimateRepository) AddComponent(ctx context.Context, c *entity.EstimateComponent) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *EstimateRepository) FindComponent(ctx context.Context, id string) (*entity.EstimateComponent, error) {
	var c entity.EstimateComponent
	err := r.db.WithContext(ctx).Preload("Part").First(&c, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &c, nil
}

func (r *EstimateRepository) UpdateComponent(ctx context.Context, c *entity.EstimateComponent) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *EstimateRepository) DeleteComponent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.EstimateComponent{}, "id = ?", id).Error
}

func (r *EstimateRepository) CreateRevision(ctx context.Context, rev *entity.EstimateRevision) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *EstimateRepository) ListRevisions(ctx context.Context, estimateID string) ([]entity.EstimateRevision, error) {
	var rows []entity.EstimateRevision
	err := r.db.WithContext(ctx).
		Where("estimate_id = ?", estimateID).
		Order("revision_number DESC").
		Find(&rows).Error
	return rows, err
}
