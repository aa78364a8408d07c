package expense

import "time"

type Expense struct {
	ID                 int64      `gorm:"primaryKey"`
	ReferenceNumber    string     `gorm:"column:reference_number;uniqueIndex;not null"`
	RequestorID        int64      `gorm:"column:requestor_id;not null;index"`
	CategoryID         int64      `gorm:"column:category_id;not null"`
	SubcategoryID      *int64     `gorm:"column:subcategory_id"`
	Amount             int64      `gorm:"column:amount;not null"`
	Description        string     `gorm:"not null"`
	ProjectID          int64      `gorm:"column:project_id;not null"`
	SiteID             int64      `gorm:"column:site_id;not null"`
	Status             string     `gorm:"column:status;default:pending_verification;index"`
	IsHighPriority     bool       `gorm:"column:is_high_priority;default:false"`
	PaidAt             *time.Time `gorm:"column:paid_at"`
	PaidBy             *int64     `gorm:"column:paid_by"`
	PaymentReference   *string    `gorm:"column:payment_reference"`
	DeletedAt          *time.Time `gorm:"column:deleted_at;index"`
	DeletedBy          *int64     `gorm:"column:deleted_by"`
	StatusBeforeDelete *string    `gorm:"column:status_before_delete"`
	LockVersion        int64      `gorm:"column:lock_version;default:0"`
	SubmittedAt        time.Time  `gorm:"column:submitted_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	History     []HistoryItem `gorm:"foreignKey:ExpenseID"`
	Attachments []Attachment  `gorm:"foreignKey:ExpenseID"`
}

func (Expense) TableName() string {
	return "expenses"
}

// HistoryItem rows are append-only: inserted once, never updated or deleted
// while the owning expense exists. Position preserves insertion order even
// when timestamps collide within one operation.
type HistoryItem struct {
	ID        int64     `gorm:"primaryKey"`
	ExpenseID int64     `gorm:"column:expense_id;not null;index"`
	Position  int       `gorm:"column:position;not null"`
	ActorID   string    `gorm:"column:actor_id;not null"`
	ActorName string    `gorm:"column:actor_name;not null"`
	Action    string    `gorm:"column:action;not null"`
	Comment   string    `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (HistoryItem) TableName() string {
	return "expense_history"
}

type Attachment struct {
	ID        int64     `gorm:"primaryKey"`
	ExpenseID int64     `gorm:"column:expense_id;not null;index"`
	Ref       string    `gorm:"column:ref;not null"`
	FileName  string    `gorm:"column:file_name"`
	Kind      string    `gorm:"column:kind;default:receipt"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Attachment) TableName() string {
	return "expense_attachments"
}
