package postgres

import (
	"context"

	masterdataDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/masterdata"
	"github.com/frahmantamala/expense-approval/internal/masterdata"
	"gorm.io/gorm"
)

type MasterDataRepository struct {
	db *gorm.DB
}

func NewMasterDataRepository(db *gorm.DB) masterdata.RepositoryAPI {
	return &MasterDataRepository{db: db}
}

func (r *MasterDataRepository) GetProjects(ctx context.Context) ([]*masterdata.Project, error) {
	var models []*masterdataDatamodel.Project
	err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]*masterdata.Project, len(models))
	for i, dm := range models {
		result[i] = masterdata.ProjectFromDataModel(dm)
	}
	return result, nil
}

func (r *MasterDataRepository) CreateProject(ctx context.Context, p *masterdata.Project) error {
	dm := masterdata.ProjectToDataModel(p)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return err
	}
	*p = *masterdata.ProjectFromDataModel(dm)
	return nil
}

func (r *MasterDataRepository) ProjectExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&masterdataDatamodel.Project{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count > 0, err
}

func (r *MasterDataRepository) GetSites(ctx context.Context) ([]*masterdata.Site, error) {
	var models []*masterdataDatamodel.Site
	err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]*masterdata.Site, len(models))
	for i, dm := range models {
		result[i] = masterdata.SiteFromDataModel(dm)
	}
	return result, nil
}

func (r *MasterDataRepository) CreateSite(ctx context.Context, s *masterdata.Site) error {
	dm := masterdata.SiteToDataModel(s)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return err
	}
	*s = *masterdata.SiteFromDataModel(dm)
	return nil
}

func (r *MasterDataRepository) SiteExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&masterdataDatamodel.Site{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count > 0, err
}
