package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	ExpenseSubmittedEvent     = "expense.submitted"
	ExpenseStatusChangedEvent = "expense.status_changed"
	ExpenseCommentedEvent     = "expense.commented"
)

// NewExpenseSubmitted is published once per submission; status carries the
// initial status, which is "approved" when the claim was auto-approved.
func NewExpenseSubmitted(expenseID int64, referenceNumber string, requestorID int64, amount int64, status string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      ExpenseSubmittedEvent,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"expense_id":       expenseID,
			"reference_number": referenceNumber,
			"requestor_id":     requestorID,
			"amount":           amount,
			"status":           status,
		},
	}
}

func NewExpenseStatusChanged(expenseID int64, referenceNumber string, requestorID int64, fromStatus, toStatus, actorName, comment string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      ExpenseStatusChangedEvent,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"expense_id":       expenseID,
			"reference_number": referenceNumber,
			"requestor_id":     requestorID,
			"from_status":      fromStatus,
			"to_status":        toStatus,
			"actor_name":       actorName,
			"comment":          comment,
		},
	}
}

func NewExpenseCommented(expenseID int64, referenceNumber string, requestorID int64, actorName, comment string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      ExpenseCommentedEvent,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"expense_id":       expenseID,
			"reference_number": referenceNumber,
			"requestor_id":     requestorID,
			"actor_name":       actorName,
			"comment":          comment,
		},
	}
}
