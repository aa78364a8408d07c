package expense

import (
	"errors"
	"fmt"

	internal "github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/validation"
)

// AttachmentRef points at a previously uploaded blob.
type AttachmentRef struct {
	Ref      string `json:"ref"`
	FileName string `json:"file_name,omitempty"`
}

// CreateExpenseDTO is the submission payload.
type CreateExpenseDTO struct {
	CategoryID    int64           `json:"category_id"`
	SubcategoryID *int64          `json:"subcategory_id,omitempty"`
	Amount        int64           `json:"amount"`
	Description   string          `json:"description"`
	ProjectID     int64           `json:"project_id"`
	SiteID        int64           `json:"site_id"`
	Attachments   []AttachmentRef `json:"attachments,omitempty"`
}

func (dto CreateExpenseDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("amount", dto.Amount).NonNegative(internal.ErrCodeValidationFailed)
	v.Field("description", dto.Description).Required().MaxLength(500)
	v.Field("category_id", dto.CategoryID).Required()
	v.Field("project_id", dto.ProjectID).Required()
	v.Field("site_id", dto.SiteID).Required()
	for i, att := range dto.Attachments {
		v.Field(fmt.Sprintf("attachments[%d].ref", i), att.Ref).Required()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// TransitionDTO carries a single status change request.
type TransitionDTO struct {
	Comment string `json:"comment,omitempty"`
}

// RejectDTO mirrors TransitionDTO; a rejection comment is optional and, when
// present, is included in the rejection notice.
type RejectDTO struct {
	Comment string `json:"comment,omitempty"`
}

// BulkTransitionDTO applies one target status to many expenses with a
// shared comment.
type BulkTransitionDTO struct {
	ExpenseIDs   []int64 `json:"expense_ids"`
	TargetStatus Status  `json:"target_status"`
	Comment      string  `json:"comment,omitempty"`
}

func (dto BulkTransitionDTO) Validate() error {
	if len(dto.ExpenseIDs) == 0 {
		return errors.New("expense_ids must not be empty")
	}
	if !dto.TargetStatus.Valid() {
		return fmt.Errorf("invalid target status %q", dto.TargetStatus)
	}
	return nil
}

// MarkPaidDTO carries the mandatory payment details.
type MarkPaidDTO struct {
	PaymentReference string `json:"payment_reference"`
	ProofRef         string `json:"proof_ref"`
	ProofFileName    string `json:"proof_file_name,omitempty"`
}

func (dto MarkPaidDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("payment_reference", dto.PaymentReference).Required()
	v.Field("proof_ref", dto.ProofRef).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// CommentDTO appends a comment to an expense's history.
type CommentDTO struct {
	Text string `json:"text"`
}

func (dto CommentDTO) Validate() error {
	if dto.Text == "" {
		return errors.New("text is required")
	}
	return nil
}

// BulkFailure reports one expense that could not be transitioned.
type BulkFailure struct {
	ExpenseID int64  `json:"expense_id"`
	Error     string `json:"error"`
}

// BulkResult reports the per-item outcome of a bulk transition; succeeded
// preserves the input order of the eligible ids.
type BulkResult struct {
	Succeeded []int64       `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// ListFilter narrows expense listings.
type ListFilter struct {
	RequestorID  *int64
	Status       *Status
	HighPriority *bool
	Deleted      bool
	Limit        int
	Offset       int
}
