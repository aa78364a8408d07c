package category

import "errors"

type CreateCategoryDTO struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	AttachmentRequired bool   `json:"attachment_required"`
	AutoApproveAmount  int64  `json:"auto_approve_amount"`
}

func (dto CreateCategoryDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.AutoApproveAmount < 0 {
		return errors.New("auto_approve_amount must not be negative")
	}
	return nil
}

type UpdateCategoryDTO struct {
	Name               *string `json:"name,omitempty"`
	Description        *string `json:"description,omitempty"`
	AttachmentRequired *bool   `json:"attachment_required,omitempty"`
	AutoApproveAmount  *int64  `json:"auto_approve_amount,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
}

type CreateSubcategoryDTO struct {
	Name               string `json:"name"`
	AttachmentRequired bool   `json:"attachment_required"`
}

func (dto CreateSubcategoryDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type CategoriesResponse struct {
	Categories []*Category `json:"categories"`
}
