package category

import (
	"errors"
	"time"

	categoryDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/category"
)

var (
	ErrNotFound            = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrInactive            = errors.New("category is inactive")
)

type Category struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Description        string        `json:"description"`
	AttachmentRequired bool          `json:"attachment_required"`
	AutoApproveAmount  int64         `json:"auto_approve_amount"`
	IsActive           bool          `json:"is_active"`
	Subcategories      []Subcategory `json:"subcategories,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Subcategory refines the parent category; its attachment flag overrides
// the parent's when the subcategory is selected.
type Subcategory struct {
	ID                 int64     `json:"id"`
	CategoryID         int64     `json:"category_id"`
	Name               string    `json:"name"`
	AttachmentRequired bool      `json:"attachment_required"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewCategory(name, description string, attachmentRequired bool, autoApproveAmount int64) *Category {
	now := time.Now()
	return &Category{
		Name:               name,
		Description:        description,
		AttachmentRequired: attachmentRequired,
		AutoApproveAmount:  autoApproveAmount,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (c *Category) Activate() {
	c.IsActive = true
	c.UpdatedAt = time.Now()
}

func (c *Category) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
}

// Subcategory returns the subcategory with the given id, if it belongs to
// this category.
func (c *Category) Subcategory(id int64) (*Subcategory, bool) {
	for i := range c.Subcategories {
		if c.Subcategories[i].ID == id {
			return &c.Subcategories[i], true
		}
	}
	return nil, false
}

func ToDataModel(c *Category) *categoryDatamodel.ExpenseCategory {
	dm := &categoryDatamodel.ExpenseCategory{
		ID:                 c.ID,
		Name:               c.Name,
		Description:        c.Description,
		AttachmentRequired: c.AttachmentRequired,
		AutoApproveAmount:  c.AutoApproveAmount,
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	for _, sc := range c.Subcategories {
		dm.Subcategories = append(dm.Subcategories, categoryDatamodel.Subcategory{
			ID:                 sc.ID,
			CategoryID:         sc.CategoryID,
			Name:               sc.Name,
			AttachmentRequired: sc.AttachmentRequired,
			CreatedAt:          sc.CreatedAt,
			UpdatedAt:          sc.UpdatedAt,
		})
	}
	return dm
}

func FromDataModel(dm *categoryDatamodel.ExpenseCategory) *Category {
	c := &Category{
		ID:                 dm.ID,
		Name:               dm.Name,
		Description:        dm.Description,
		AttachmentRequired: dm.AttachmentRequired,
		AutoApproveAmount:  dm.AutoApproveAmount,
		IsActive:           dm.IsActive,
		CreatedAt:          dm.CreatedAt,
		UpdatedAt:          dm.UpdatedAt,
	}
	for _, sc := range dm.Subcategories {
		c.Subcategories = append(c.Subcategories, Subcategory{
			ID:                 sc.ID,
			CategoryID:         sc.CategoryID,
			Name:               sc.Name,
			AttachmentRequired: sc.AttachmentRequired,
			CreatedAt:          sc.CreatedAt,
			UpdatedAt:          sc.UpdatedAt,
		})
	}
	return c
}
