package postgres

import (
	"context"
	"errors"
	"time"

	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"gorm.io/gorm"
)

// ExpenseRepository implements the expense.Repository interface using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

// Create saves a new expense with its initial history and attachments.
func (r *ExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	dm := expense.ToDataModel(e)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return err
	}
	*e = *expense.FromDataModel(dm)
	return nil
}

// Save persists field changes and any history/attachment rows appended
// since load. The update is guarded by the lock version read at load time:
// zero affected rows means another writer won and the caller sees
// ErrVersionConflict.
func (r *ExpenseRepository) Save(ctx context.Context, e *expense.Expense) error {
	dm := expense.ToDataModel(e)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":            dm.Status,
			"is_high_priority":  dm.IsHighPriority,
			"paid_at":           dm.PaidAt,
			"paid_by":           dm.PaidBy,
			"payment_reference": dm.PaymentReference,
			"deleted_at":        dm.DeletedAt,
			"deleted_by":        dm.DeletedBy,
			"status_before_delete": func() interface{} {
				if dm.StatusBeforeDelete == nil {
					return nil
				}
				return *dm.StatusBeforeDelete
			}(),
			"lock_version": dm.LockVersion + 1,
			"updated_at":   time.Now(),
		}

		result := tx.Model(&expenseDatamodel.Expense{}).
			Where("id = ? AND lock_version = ?", dm.ID, dm.LockVersion).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return expense.ErrVersionConflict
		}

		for i := range dm.History {
			if dm.History[i].ID != 0 {
				continue
			}
			dm.History[i].ExpenseID = dm.ID
			if err := tx.Create(&dm.History[i]).Error; err != nil {
				return err
			}
		}
		for i := range dm.Attachments {
			if dm.Attachments[i].ID != 0 {
				continue
			}
			dm.Attachments[i].ExpenseID = dm.ID
			if err := tx.Create(&dm.Attachments[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.LockVersion = dm.LockVersion + 1
	return nil
}

// GetByID retrieves an expense with history (in append order) and
// attachments. Soft-deleted expenses are returned too; visibility is the
// service's call.
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	var dm expenseDatamodel.Expense
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Attachments").
		Where("id = ?", id).
		First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expense.ErrNotFound
		}
		return nil, err
	}
	return expense.FromDataModel(&dm), nil
}

// List retrieves expenses matching the filter, newest submissions first.
func (r *ExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	query := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{})

	if filter.Deleted {
		query = query.Where("deleted_at IS NOT NULL")
	} else {
		query = query.Where("deleted_at IS NULL")
	}
	if filter.RequestorID != nil {
		query = query.Where("requestor_id = ?", *filter.RequestorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.HighPriority != nil {
		query = query.Where("is_high_priority = ?", *filter.HighPriority)
	}

	var models []*expenseDatamodel.Expense
	err := query.
		Order("submitted_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return expense.FromDataModelSlice(models), nil
}

// CountByStatus counts live expenses grouped by status, optionally scoped
// to one requestor.
func (r *ExpenseRepository) CountByStatus(ctx context.Context, requestorID *int64) (map[expense.Status]int64, error) {
	query := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{}).
		Where("deleted_at IS NULL")
	if requestorID != nil {
		query = query.Where("requestor_id = ?", *requestorID)
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[expense.Status]int64, len(rows))
	for _, row := range rows {
		counts[expense.Status(row.Status)] = row.Count
	}
	return counts, nil
}

// PermanentDelete removes the expense and its child rows.
func (r *ExpenseRepository) PermanentDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", id).Delete(&expenseDatamodel.HistoryItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("expense_id = ?", id).Delete(&expenseDatamodel.Attachment{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&expenseDatamodel.Expense{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return expense.ErrNotFound
		}
		return nil
	})
}

// ReferenceExists reports whether a reference number is already taken.
func (r *ExpenseRepository) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{}).
		Where("reference_number = ?", ref).
		Count(&count).Error
	return count > 0, err
}
