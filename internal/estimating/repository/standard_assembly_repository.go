package repository

import (
	"context"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"gorm.io/gorm"
)

type StandardAssemblyRepository struct {
	db *gorm.DB
}

func NewStandardAssemblyRepository(db *gorm.DB) *StandardAssemblyRepository {
	return &StandardAssemblyRepository{db: db}
}

func (r *StandardAssemblyRepository) Create(ctx context.Context, sa *entity.StandardAssembly) error {
	return r.db.WithContext(ctx).Create(sa).Error
}

func (r *StandardAssemblyRepository) FindByID(ctx context.Context, id string) (*entity.StandardAssembly, error) {
	var sa entity.StandardAssembly
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, created_at")
		}).
		Preload("Components.Part").
		Preload("Components.Part.PriceHistory", "is_current = ?", true).
		First(&sa, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &sa, nil
}

// FindFamilyVersion locates the row of a version family carrying the given
// version string. rootID is the family's base assembly id. The base row
// matches by its own id, derived rows match by base_assembly_id.
func (r *StandardAssemblyRepository) FindFamilyVersion(ctx context.Context, rootID, version string) (*entity.StandardAssembly, error) {
	var sa entity.StandardAssembly
	err := r.db.WithContext(ctx).
		First(&sa, "id = ? AND version = ?", rootID, version).Error
	if err == nil {
		return &sa, nil
	}
	if wrapNotFound(err) != ErrNotFound {
		return nil, err
	}
	err = r.db.WithContext(ctx).
		First(&sa, "base_assembly_id = ? AND version = ?", rootID, version).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &sa, nil
}

// ListFamily returns every version row of the family, base included, newest
// version record first.
func (r *StandardAssemblyRepository) ListFamily(ctx context.Context, rootID string) ([]entity.StandardAssembly, error) {
	var rows []entity.StandardAssembly
	err := r.db.WithContext(ctx).
		Where("id = ? OR base_assembly_id = ?", rootID, rootID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *StandardAssemblyRepository) List(ctx context.Context, categoryID, search string, templatesOnly bool, offset, limit int) ([]entity.StandardAssembly, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StandardAssembly{}).Where("is_active = ?", true)
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR assembly_number LIKE ?", like, like)
	}
	if templatesOnly {
		query = query.Where("is_template = ? OR base_assembly_id IS NULL", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []entity.StandardAssembly
	err := query.
		Preload("Category").
		Order("name").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *StandardAssemblyRepository) Update(ctx context.Context, sa *entity.StandardAssembly) error {
	return r.db.WithContext(ctx).Save(sa).Error
}

func (r *StandardAssemblyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.StandardAssemblyComponent{}, "standard_assembly_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entity.AssemblyVersion{}, "standard_assembly_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.StandardAssembly{}, "id = ?", id).Error
	})
}

// CountAssemblyRefs reports how many estimate assemblies reference any version
// of this family.
func (r *StandardAssemblyRepository) CountAssemblyRefs(ctx context.Context, ids []string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Assembly{}).
		Where("standard_assembly_id IN ?", ids).
		Count(&n).Error
	return n, err
}

func (r *StandardAssemblyRepository) AddComponent(ctx context.Context, c *entity.StandardAssemblyComponent) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *StandardAssemblyRepository) FindComponent(ctx context.Context, id string) (*entity.StandardAssemblyComponent, error) {
	var c entity.StandardAssemblyComponent
	err := r.db.WithContext(ctx).Preload("Part").First(&c, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &c, nil
}

func (r *StandardAssemblyRepository) UpdateComponent(ctx context.Context, c *entity.StandardAssemblyComponent) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *StandardAssemblyRepository) DeleteComponent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.StandardAssemblyComponent{}, "id = ?", id).Error
}

func (r *StandardAssemblyRepository) ListComponents(ctx context.Context, assemblyID string) ([]entity.StandardAssemblyComponent, error) {
	var rows []entity.StandardAssemblyComponent
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Part.PriceHistory", "is_current = ?", true).
		Where("standard_assembly_id = ?", assemblyID).
		Order("sort_order, created_at").
		Find(&rows).Error
	return rows, err
}

func (r *StandardAssemblyRepository) CreateVersionRecord(ctx context.Context, rec *entity.AssemblyVersion) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *StandardAssemblyRepository) ListVersionRecords(ctx context.Context, assemblyIDs []string) ([]entity.AssemblyVersion, error) {
	var rows []entity.AssemblyVersion
	err := r.db.WithContext(ctx).
		Where("standard_assembly_id IN ?", assemblyIDs).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

type AssemblyCategoryRepository struct {
	db *gorm.DB
}

func NewAssemblyCategoryRepository(db *gorm.DB) *AssemblyCategoryRepository {
	return &AssemblyCategoryRepository{db: db}
}

func (r *AssemblyCategoryRepository) Create(ctx context.Context, cat *entity.AssemblyCategory) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *AssemblyCategoryRepository) FindByID(ctx context.Context, id string) (*entity.AssemblyCategory, error) {
	var cat entity.AssemblyCategory
	err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &cat, nil
}

func (r *AssemblyCategoryRepository) List(ctx context.Context, activeOnly bool) ([]entity.AssemblyCategory, error) {
	var cats []entity.AssemblyCategory
	query := r.db.WithContext(ctx).Order("sort_order, name")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&cats).Error
	return cats, err
}
