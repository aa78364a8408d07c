package category

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-approval/internal/expense"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	CreateSubcategory(ctx context.Context, sc *Subcategory) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetActiveCategories lists categories available for submission.
func (s *Service) GetActiveCategories(ctx context.Context) ([]*Category, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get categories", "error", err)
		return nil, err
	}

	var active []*Category
	for _, c := range all {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}

// GetAll lists every category including inactive ones, for admin views.
func (s *Service) GetAll(ctx context.Context) ([]*Category, error) {
	return s.repo.GetAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, dto CreateCategoryDTO) (*Category, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c := NewCategory(dto.Name, dto.Description, dto.AttachmentRequired, dto.AutoApproveAmount)
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("failed to create category", "name", dto.Name, "error", err)
		return nil, err
	}

	s.logger.Info("category created", "category_id", c.ID, "name", c.Name, "auto_approve_amount", c.AutoApproveAmount)
	return c, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateCategoryDTO) (*Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		c.Name = *dto.Name
	}
	if dto.Description != nil {
		c.Description = *dto.Description
	}
	if dto.AttachmentRequired != nil {
		c.AttachmentRequired = *dto.AttachmentRequired
	}
	if dto.AutoApproveAmount != nil {
		c.AutoApproveAmount = *dto.AutoApproveAmount
	}
	if dto.IsActive != nil {
		if *dto.IsActive {
			c.Activate()
		} else {
			c.Deactivate()
		}
	}

	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("failed to update category", "category_id", id, "error", err)
		return nil, err
	}
	return c, nil
}

func (s *Service) AddSubcategory(ctx context.Context, categoryID int64, dto CreateSubcategoryDTO) (*Subcategory, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}

	sc := &Subcategory{
		CategoryID:         categoryID,
		Name:               dto.Name,
		AttachmentRequired: dto.AttachmentRequired,
	}
	if err := s.repo.CreateSubcategory(ctx, sc); err != nil {
		s.logger.Error("failed to create subcategory", "category_id", categoryID, "error", err)
		return nil, err
	}
	return sc, nil
}

// Rules resolves the submission rules for a category, satisfying the
// expense service's CategoryProvider. A chosen subcategory's attachment
// flag overrides the category's; the auto-approve threshold is always the
// category's.
func (s *Service) Rules(ctx context.Context, categoryID int64, subcategoryID *int64) (expense.CategoryRules, error) {
	c, err := s.repo.GetByID(ctx, categoryID)
	if err != nil {
		return expense.CategoryRules{}, expense.ErrCategoryNotFound
	}
	if !c.IsActive {
		return expense.CategoryRules{}, ErrInactive
	}

	rules := expense.CategoryRules{
		AutoApproveAmount:  c.AutoApproveAmount,
		AttachmentRequired: c.AttachmentRequired,
	}

	if subcategoryID != nil {
		sc, ok := c.Subcategory(*subcategoryID)
		if !ok {
			return expense.CategoryRules{}, ErrSubcategoryNotFound
		}
		rules.AttachmentRequired = sc.AttachmentRequired
	}

	return rules, nil
}
