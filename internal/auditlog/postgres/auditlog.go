package postgres

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal/auditlog"
	auditlogDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/auditlog"
	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) auditlog.RepositoryAPI {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, e *auditlog.Entry) error {
	dm := auditlog.ToDataModel(e)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return err
	}
	e.ID = dm.ID
	return nil
}

func (r *AuditLogRepository) List(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]*auditlog.Entry, error) {
	query := r.db.WithContext(ctx).Model(&auditlogDatamodel.AuditLogItem{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityID != 0 {
		query = query.Where("entity_id = ?", entityID)
	}

	var models []*auditlogDatamodel.AuditLogItem
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]*auditlog.Entry, len(models))
	for i, dm := range models {
		result[i] = auditlog.FromDataModel(dm)
	}
	return result, nil
}
