package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/expense-approval/internal/category"
	categoryDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/category"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetAll(ctx context.Context) ([]*category.Category, error) {
	var models []*categoryDatamodel.ExpenseCategory
	err := r.db.WithContext(ctx).
		Preload("Subcategories").
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]*category.Category, len(models))
	for i, dm := range models {
		result[i] = category.FromDataModel(dm)
	}
	return result, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	var dm categoryDatamodel.ExpenseCategory
	err := r.db.WithContext(ctx).
		Preload("Subcategories").
		Where("id = ?", id).
		First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, category.ErrNotFound
		}
		return nil, err
	}
	return category.FromDataModel(&dm), nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	dm := category.ToDataModel(c)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return err
	}
	*c = *category.FromDataModel(dm)
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	dm := category.ToDataModel(c)
	dm.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Model(&categoryDatamodel.ExpenseCategory{}).
		Where("id = ?", dm.ID).
		Updates(map[string]interface{}{
			"name":                dm.Name,
			"description":         dm.Description,
			"attachment_required": dm.AttachmentRequired,
			"auto_approve_amount": dm.AutoApproveAmount,
			"is_active":           dm.IsActive,
			"updated_at":          dm.UpdatedAt,
		}).Error
}

func (r *CategoryRepository) CreateSubcategory(ctx context.Context, sc *category.Subcategory) error {
	dm := &categoryDatamodel.Subcategory{
		CategoryID:         sc.CategoryID,
		Name:               sc.Name,
		AttachmentRequired: sc.AttachmentRequired,
	}
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return err
	}
	sc.ID = dm.ID
	sc.CreatedAt = dm.CreatedAt
	sc.UpdatedAt = dm.UpdatedAt
	return nil
}
