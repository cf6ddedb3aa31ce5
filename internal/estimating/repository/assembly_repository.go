package repository

import (
	"context"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"gorm.io/gorm"
)

type AssemblyRepository struct {
	db *gorm.DB
}

func NewAssemblyRepository(db *gorm.DB) *AssemblyRepository {
	return &AssemblyRepository{db: db}
}

func (r *AssemblyRepository) Create(ctx context.Context, a *entity.Assembly) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AssemblyRepository) FindByID(ctx context.Context, id string) (*entity.Assembly, error) {
	var a entity.Assembly
	err := r.db.WithContext(ctx).
		Preload("StandardAssembly").
		Preload("Parts", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, created_at")
		}).
		Preload("Parts.Part").
		Preload("Parts.Part.PriceHistory", "is_current = ?", true).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &a, nil
}

func (r *AssemblyRepository) ListByEstimate(ctx context.Context, estimateID string) ([]entity.Assembly, error) {
	var rows []entity.Assembly
	err := r.db.WithContext(ctx).
		Preload("Parts.Part.PriceHistory", "is_current = ?", true).
		Preload("Parts.Part").
		Preload("Parts", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, created_at")
		}).
		Where("estimate_id = ?", estimateID).
		Order("sort_order, created_at").
		Find(&rows).Error
	return rows, err
}

func (r *AssemblyRepository) Update(ctx context.Context, a *entity.Assembly) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// UpdateStandardAssemblyRef moves the assembly's template reference. Both the
// id and the denormalized version column change in a single UPDATE so no
// reader ever sees a mismatched pair.
func (r *AssemblyRepository) UpdateStandardAssemblyRef(ctx context.Context, assemblyID, targetID, targetVersion string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Assembly{}).
			Where("id = ?", assemblyID).
			Updates(map[string]interface{}{
				"standard_assembly_id":      targetID,
				"standard_assembly_version": targetVersion,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *AssemblyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.AssemblyPart{}, "assembly_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Assembly{}, "id = ?", id).Error
	})
}

func (r *AssemblyRepository) AddPart(ctx context.Context, ap *entity.AssemblyPart) error {
	return r.db.WithContext(ctx).Create(ap).Error
}

func (r *AssemblyRepository) FindPart(ctx context.Context, id string) (*entity.AssemblyPart, error) {
	var ap entity.AssemblyPart
	err := r.db.WithContext(ctx).Preload("Part").First(&ap, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &ap, nil
}

func (r *AssemblyRepository) UpdatePart(ctx context.Context, ap *entity.AssemblyPart) error {
	return r.db.WithContext(ctx).Save(ap).Error
}

func (r *AssemblyRepository) DeletePart(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.AssemblyPart{}, "id = ?", id).Error
}

func (r *AssemblyRepository) DeletePartsByAssembly(ctx context.Context, assemblyID string) error {
	return r.db.WithContext(ctx).Delete(&entity.AssemblyPart{}, "assembly_id = ?", assemblyID).Error
}

func (r *AssemblyRepository) ListParts(ctx context.Context, assemblyID string) ([]entity.AssemblyPart, error) {
	var rows []entity.AssemblyPart
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Part.PriceHistory", "is_current = ?", true).
		Where("assembly_id = ?", assemblyID).
		Order("sort_order, created_at").
		Find(&rows).Error
	return rows, err
}
