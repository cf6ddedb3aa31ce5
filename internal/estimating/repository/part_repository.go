package repository

import (
	"context"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"gorm.io/gorm"
)

type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

func (r *PartRepository) Create(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}

// FindByID loads a part with its current price history row.
func (r *PartRepository) FindByID(ctx context.Context, id string) (*entity.Part, error) {
	var part entity.Part
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("PriceHistory", "is_current = ?", true).
		First(&part, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &part, nil
}

// FindByIdentifier matches part_number, master_item_number or upc.
func (r *PartRepository) FindByIdentifier(ctx context.Context, identifier string) (*entity.Part, error) {
	var part entity.Part
	err := r.db.WithContext(ctx).
		Preload("PriceHistory", "is_current = ?", true).
		Where("part_number = ? OR master_item_number = ? OR upc = ?", identifier, identifier, identifier).
		First(&part).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &part, nil
}

func (r *PartRepository) List(ctx context.Context, categoryID, search string, offset, limit int) ([]entity.Part, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Part{})
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("part_number LIKE ? OR description LIKE ? OR manufacturer LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}

	var parts []entity.Part
	err := query.
		Preload("Category").
		Preload("PriceHistory", "is_current = ?", true).
		Order("part_number").
		Find(&parts).Error
	return parts, total, err
}

func (r *PartRepository) Update(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Save(part).Error
}

func (r *PartRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Part{}, "id = ?", id).Error
}

// CountReferences reports how many assembly/template/estimate lines point at
// the part. Deletion is refused while any exist.
func (r *PartRepository) CountReferences(ctx context.Context, partID string) (int64, error) {
	var total, n int64
	if err := r.db.WithContext(ctx).Model(&entity.AssemblyPart{}).Where("part_id = ?", partID).Count(&n).Error; err != nil {
		return 0, err
	}
	total += n
	if err := r.db.WithContext(ctx).Model(&entity.StandardAssemblyComponent{}).Where("part_id = ?", partID).Count(&n).Error; err != nil {
		return 0, err
	}
	total += n
	if err := r.db.WithContext(ctx).Model(&entity.EstimateComponent{}).Where("part_id = ?", partID).Count(&n).Error; err != nil {
		return 0, err
	}
	return total + n, nil
}

// AppendPriceHistory clears the current flag and inserts the new row in one
// transaction.
func (r *PartRepository) AppendPriceHistory(ctx context.Context, row *entity.PartPriceHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.PartPriceHistory{}).
			Where("part_id = ? AND is_current = ?", row.PartID, true).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Create(row).Error
	})
}

func (r *PartRepository) ListPriceHistory(ctx context.Context, partID string, limit int) ([]entity.PartPriceHistory, error) {
	var rows []entity.PartPriceHistory
	query := r.db.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("changed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}

type PartCategoryRepository struct {
	db *gorm.DB
}

func NewPartCategoryRepository(db *gorm.DB) *PartCategoryRepository {
	return &PartCategoryRepository{db: db}
}

func (r *PartCategoryRepository) FindByName(ctx context.Context, name string) (*entity.PartCategory, error) {
	var cat entity.PartCategory
	err := r.db.WithContext(ctx).First(&cat, "name = ?", name).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &cat, nil
}

func (r *PartCategoryRepository) Create(ctx context.Context, cat *entity.PartCategory) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *PartCategoryRepository) List(ctx context.Context, activeOnly bool) ([]entity.PartCategory, error) {
	var cats []entity.PartCategory
	query := r.db.WithContext(ctx).Order("name")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&cats).Error
	return cats, err
}
