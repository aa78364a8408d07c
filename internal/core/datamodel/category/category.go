package category

import "time"

type ExpenseCategory struct {
	ID                 int64     `gorm:"primaryKey"`
	Name               string    `gorm:"column:name;uniqueIndex;not null"`
	Description        string    `gorm:"column:description"`
	AttachmentRequired bool      `gorm:"column:attachment_required;default:false"`
	AutoApproveAmount  int64     `gorm:"column:auto_approve_amount;default:0"`
	IsActive           bool      `gorm:"column:is_active;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt          time.Time `gorm:"column:updated_at;default:now()"`

	Subcategories []Subcategory `gorm:"foreignKey:CategoryID"`
}

func (ExpenseCategory) TableName() string {
	return "expense_categories"
}

type Subcategory struct {
	ID                 int64     `gorm:"primaryKey"`
	CategoryID         int64     `gorm:"column:category_id;not null;index"`
	Name               string    `gorm:"column:name;not null"`
	AttachmentRequired bool      `gorm:"column:attachment_required;default:false"`
	IsActive           bool      `gorm:"column:is_active;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt          time.Time `gorm:"column:updated_at;default:now()"`
}

func (Subcategory) TableName() string {
	return "expense_subcategories"
}
