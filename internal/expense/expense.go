package expense

import (
	"errors"
	"time"

	"github.com/frahmantamala/expense-approval/internal/auth"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
)

type Status string

const (
	StatusPendingVerification Status = "pending_verification"
	StatusPendingApproval     Status = "pending_approval"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusPaid                Status = "paid"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingVerification, StatusPendingApproval, StatusApproved, StatusRejected, StatusPaid:
		return true
	}
	return false
}

type Action string

const (
	ActionSubmitted    Action = "submitted"
	ActionAutoApproved Action = "auto_approved"
	ActionVerified     Action = "verified"
	ActionApproved     Action = "approved"
	ActionRejected     Action = "rejected"
	ActionComment      Action = "comment"
	ActionMarkedPaid   Action = "marked_paid"
	ActionDeleted      Action = "deleted"
	ActionRestored     Action = "restored"
)

const (
	AttachmentKindReceipt      = "receipt"
	AttachmentKindPaymentProof = "payment_proof"
)

// SystemActorID is the reserved actor recorded for automatic transitions.
const SystemActorID = "system"

// Actor identifies who is performing a workflow operation.
type Actor struct {
	ID   int64
	Name string
	Role auth.Role
}

type Expense struct {
	ID                 int64      `json:"id"`
	ReferenceNumber    string     `json:"reference_number"`
	RequestorID        int64      `json:"requestor_id"`
	CategoryID         int64      `json:"category_id"`
	SubcategoryID      *int64     `json:"subcategory_id,omitempty"`
	Amount             int64      `json:"amount"`
	Description        string     `json:"description"`
	ProjectID          int64      `json:"project_id"`
	SiteID             int64      `json:"site_id"`
	Status             Status     `json:"status"`
	IsHighPriority     bool       `json:"is_high_priority"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	PaidBy             *int64     `json:"paid_by,omitempty"`
	PaymentReference   *string    `json:"payment_reference,omitempty"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
	DeletedBy          *int64     `json:"deleted_by,omitempty"`
	StatusBeforeDelete *Status    `json:"status_before_delete,omitempty"`
	LockVersion        int64      `json:"-"`
	SubmittedAt        time.Time  `json:"submitted_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	History     []HistoryItem `json:"history"`
	Attachments []Attachment  `json:"attachments,omitempty"`
}

// HistoryItem is immutable once appended; insertion order is chronological
// order and is never reordered or pruned.
type HistoryItem struct {
	ID        int64     `json:"id"`
	ExpenseID int64     `json:"-"`
	Position  int       `json:"-"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    Action    `json:"action"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

type Attachment struct {
	ID        int64     `json:"id"`
	ExpenseID int64     `json:"-"`
	Ref       string    `json:"ref"`
	FileName  string    `json:"file_name,omitempty"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Domain errors
var (
	ErrNotFound               = errors.New("expense not found")
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrUnauthorizedAccess     = errors.New("unauthorized access to expense")
	ErrNotDeletable           = errors.New("expense is not eligible for deletion")
	ErrNotDeleted             = errors.New("expense is not deleted")
	ErrAlreadyDeleted         = errors.New("expense is already deleted")
	ErrPaymentDetailsRequired = errors.New("payment reference and proof attachment are required")
	ErrVersionConflict        = errors.New("expense was modified concurrently")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrProjectNotFound        = errors.New("project not found")
	ErrSiteNotFound           = errors.New("site not found")
)

func (e *Expense) IsDeleted() bool {
	return e.DeletedAt != nil
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	dm := &expenseDatamodel.Expense{
		ID:               e.ID,
		ReferenceNumber:  e.ReferenceNumber,
		RequestorID:      e.RequestorID,
		CategoryID:       e.CategoryID,
		SubcategoryID:    e.SubcategoryID,
		Amount:           e.Amount,
		Description:      e.Description,
		ProjectID:        e.ProjectID,
		SiteID:           e.SiteID,
		Status:           string(e.Status),
		IsHighPriority:   e.IsHighPriority,
		PaidAt:           e.PaidAt,
		PaidBy:           e.PaidBy,
		PaymentReference: e.PaymentReference,
		DeletedAt:        e.DeletedAt,
		DeletedBy:        e.DeletedBy,
		LockVersion:      e.LockVersion,
		SubmittedAt:      e.SubmittedAt,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
	if e.StatusBeforeDelete != nil {
		s := string(*e.StatusBeforeDelete)
		dm.StatusBeforeDelete = &s
	}
	for _, h := range e.History {
		dm.History = append(dm.History, expenseDatamodel.HistoryItem{
			ID:        h.ID,
			ExpenseID: e.ID,
			Position:  h.Position,
			ActorID:   h.ActorID,
			ActorName: h.ActorName,
			Action:    string(h.Action),
			Comment:   h.Comment,
			CreatedAt: h.CreatedAt,
		})
	}
	for _, a := range e.Attachments {
		dm.Attachments = append(dm.Attachments, expenseDatamodel.Attachment{
			ID:        a.ID,
			ExpenseID: e.ID,
			Ref:       a.Ref,
			FileName:  a.FileName,
			Kind:      a.Kind,
			CreatedAt: a.CreatedAt,
		})
	}
	return dm
}

func FromDataModel(dm *expenseDatamodel.Expense) *Expense {
	e := &Expense{
		ID:               dm.ID,
		ReferenceNumber:  dm.ReferenceNumber,
		RequestorID:      dm.RequestorID,
		CategoryID:       dm.CategoryID,
		SubcategoryID:    dm.SubcategoryID,
		Amount:           dm.Amount,
		Description:      dm.Description,
		ProjectID:        dm.ProjectID,
		SiteID:           dm.SiteID,
		Status:           Status(dm.Status),
		IsHighPriority:   dm.IsHighPriority,
		PaidAt:           dm.PaidAt,
		PaidBy:           dm.PaidBy,
		PaymentReference: dm.PaymentReference,
		DeletedAt:        dm.DeletedAt,
		DeletedBy:        dm.DeletedBy,
		LockVersion:      dm.LockVersion,
		SubmittedAt:      dm.SubmittedAt,
		CreatedAt:        dm.CreatedAt,
		UpdatedAt:        dm.UpdatedAt,
	}
	if dm.StatusBeforeDelete != nil {
		s := Status(*dm.StatusBeforeDelete)
		e.StatusBeforeDelete = &s
	}
	for _, h := range dm.History {
		e.History = append(e.History, HistoryItem{
			ID:        h.ID,
			ExpenseID: h.ExpenseID,
			Position:  h.Position,
			ActorID:   h.ActorID,
			ActorName: h.ActorName,
			Action:    Action(h.Action),
			Comment:   h.Comment,
			CreatedAt: h.CreatedAt,
		})
	}
	for _, a := range dm.Attachments {
		e.Attachments = append(e.Attachments, Attachment{
			ID:        a.ID,
			ExpenseID: a.ExpenseID,
			Ref:       a.Ref,
			FileName:  a.FileName,
			Kind:      a.Kind,
			CreatedAt: a.CreatedAt,
		})
	}
	return e
}

func FromDataModelSlice(models []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(models))
	for i, dm := range models {
		result[i] = FromDataModel(dm)
	}
	return result
}
