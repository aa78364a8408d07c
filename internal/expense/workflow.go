package expense

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/frahmantamala/expense-approval/internal/auth"
)

// transitionRule is one row of the workflow table: who may move an expense
// from one status to another, and which history action records it.
type transitionRule struct {
	target Status
	action Action
	roles  []auth.Role
}

// transitionTable is the single source of truth for status transitions.
// Every transition entry point consults it; there is no other role/state
// check for workflow moves.
var transitionTable = map[Status][]transitionRule{
	StatusPendingVerification: {
		{target: StatusPendingApproval, action: ActionVerified, roles: []auth.Role{auth.RoleVerifier}},
		{target: StatusRejected, action: ActionRejected, roles: []auth.Role{auth.RoleVerifier}},
	},
	StatusPendingApproval: {
		{target: StatusApproved, action: ActionApproved, roles: []auth.Role{auth.RoleApprover}},
		{target: StatusRejected, action: ActionRejected, roles: []auth.Role{auth.RoleApprover}},
	},
	StatusApproved: {
		{target: StatusPaid, action: ActionMarkedPaid, roles: []auth.Role{auth.RoleVerifier, auth.RoleApprover, auth.RoleAdmin}},
	},
}

// ruleFor looks up the table entry for a (from, role, target) triple.
func ruleFor(from Status, role auth.Role, target Status) (Action, bool) {
	for _, rule := range transitionTable[from] {
		if rule.target != target {
			continue
		}
		for _, allowed := range rule.roles {
			if allowed == role {
				return rule.action, true
			}
		}
	}
	return "", false
}

// CanTransition reports whether the role may move an expense from one
// status to another, without mutating anything.
func CanTransition(from Status, role auth.Role, target Status) bool {
	_, ok := ruleFor(from, role, target)
	return ok
}

// CanTogglePriority reports whether the role may flip the priority flag.
func CanTogglePriority(role auth.Role) bool {
	return role.OneOf(auth.RoleAdmin, auth.RoleVerifier, auth.RoleApprover)
}

const referenceSuffixCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReferenceNumber builds an EXP-YYYYMMDD-XXXX reference from the given
// time and a random 4-character suffix. Uniqueness is enforced by the
// database; collisions are retried by the caller.
func NewReferenceNumber(now time.Time) string {
	suffix := make([]byte, 4)
	max := big.NewInt(int64(len(referenceSuffixCharset)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform is broken; fall back
			// to a time-derived index rather than aborting submission.
			n = big.NewInt(now.UnixNano() >> uint(i))
		}
		suffix[i] = referenceSuffixCharset[n.Int64()%int64(len(referenceSuffixCharset))]
	}
	return fmt.Sprintf("EXP-%s-%s", now.Format("20060102"), string(suffix))
}

func (a Actor) historyActorID() string {
	return strconv.FormatInt(a.ID, 10)
}

func (e *Expense) appendHistory(actorID, actorName string, action Action, comment string) {
	e.History = append(e.History, HistoryItem{
		ExpenseID: e.ID,
		Position:  len(e.History),
		ActorID:   actorID,
		ActorName: actorName,
		Action:    action,
		Comment:   comment,
		CreatedAt: time.Now(),
	})
}

// CategoryRules is the slice of category configuration the engine needs at
// submission time: the auto-approval threshold and the effective attachment
// requirement (subcategory flag wins when a subcategory is chosen).
type CategoryRules struct {
	AutoApproveAmount  int64
	AttachmentRequired bool
}

// NewExpense creates an expense in its initial state. The auto-approval
// rule is evaluated exactly once, here, against the category's current
// threshold: amounts at or below it skip verification and approval
// entirely.
func NewExpense(requestor Actor, dto CreateExpenseDTO, rules CategoryRules) *Expense {
	now := time.Now()

	e := &Expense{
		ReferenceNumber: NewReferenceNumber(now),
		RequestorID:     requestor.ID,
		CategoryID:      dto.CategoryID,
		SubcategoryID:   dto.SubcategoryID,
		Amount:          dto.Amount,
		Description:     dto.Description,
		ProjectID:       dto.ProjectID,
		SiteID:          dto.SiteID,
		Status:          StatusPendingVerification,
		SubmittedAt:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, att := range dto.Attachments {
		e.Attachments = append(e.Attachments, Attachment{
			Ref:       att.Ref,
			FileName:  att.FileName,
			Kind:      AttachmentKindReceipt,
			CreatedAt: now,
		})
	}

	e.appendHistory(requestor.historyActorID(), requestor.Name, ActionSubmitted, "")

	if dto.Amount <= rules.AutoApproveAmount {
		e.Status = StatusApproved
		e.appendHistory(SystemActorID, SystemActorID, ActionAutoApproved,
			fmt.Sprintf("amount %d within category auto-approve threshold %d", dto.Amount, rules.AutoApproveAmount))
	}

	return e
}

// ApplyTransition moves the expense along the workflow table. It validates
// the (status, role, target) triple before mutating anything, so a failed
// call leaves both status and history untouched. Payment is excluded here:
// it carries mandatory payment details and goes through MarkPaid.
func (e *Expense) ApplyTransition(actor Actor, target Status, comment string) error {
	if e.IsDeleted() {
		return fmt.Errorf("%w: expense %s is deleted", ErrInvalidTransition, e.ReferenceNumber)
	}
	if target == StatusPaid {
		return ErrPaymentDetailsRequired
	}

	action, ok := ruleFor(e.Status, actor.Role, target)
	if !ok {
		return fmt.Errorf("%w: %s cannot move %s from %s to %s",
			ErrInvalidTransition, actor.Role, e.ReferenceNumber, e.Status, target)
	}

	e.Status = target
	e.appendHistory(actor.historyActorID(), actor.Name, action, comment)
	e.UpdatedAt = time.Now()
	return nil
}

// MarkPaid transitions an approved expense to paid. Both the payment
// reference and the proof attachment are mandatory; the operation fails
// without either and the expense stays approved.
func (e *Expense) MarkPaid(actor Actor, paymentReference, proofRef, proofFileName string) error {
	if paymentReference == "" || proofRef == "" {
		return ErrPaymentDetailsRequired
	}
	if e.IsDeleted() {
		return fmt.Errorf("%w: expense %s is deleted", ErrInvalidTransition, e.ReferenceNumber)
	}

	action, ok := ruleFor(e.Status, actor.Role, StatusPaid)
	if !ok {
		return fmt.Errorf("%w: %s cannot mark %s paid from %s",
			ErrInvalidTransition, actor.Role, e.ReferenceNumber, e.Status)
	}

	now := time.Now()
	e.Status = StatusPaid
	e.PaidAt = &now
	e.PaidBy = &actor.ID
	e.PaymentReference = &paymentReference
	e.Attachments = append(e.Attachments, Attachment{
		ExpenseID: e.ID,
		Ref:       proofRef,
		FileName:  proofFileName,
		Kind:      AttachmentKindPaymentProof,
		CreatedAt: now,
	})
	e.appendHistory(actor.historyActorID(), actor.Name, action, fmt.Sprintf("payment reference %s", paymentReference))
	e.UpdatedAt = now
	return nil
}

// SoftDelete hides the expense from normal views without changing its
// status: the current status is snapshotted so restore needs no status
// write at all. Only terminal review states are eligible.
func (e *Expense) SoftDelete(actor Actor) error {
	if !actor.Role.OneOf(auth.RoleAdmin) {
		return fmt.Errorf("%w: only admin may delete expenses", ErrInvalidTransition)
	}
	if e.IsDeleted() {
		return ErrAlreadyDeleted
	}
	if e.Status != StatusApproved && e.Status != StatusRejected {
		return fmt.Errorf("%w: status %s", ErrNotDeletable, e.Status)
	}

	now := time.Now()
	snapshot := e.Status
	e.DeletedAt = &now
	e.DeletedBy = &actor.ID
	e.StatusBeforeDelete = &snapshot
	e.appendHistory(actor.historyActorID(), actor.Name, ActionDeleted, "")
	e.UpdatedAt = now
	return nil
}

// Restore clears the soft-delete markers. Status was never altered by the
// delete, so nothing else changes.
func (e *Expense) Restore(actor Actor) error {
	if !actor.Role.OneOf(auth.RoleAdmin) {
		return fmt.Errorf("%w: only admin may restore expenses", ErrInvalidTransition)
	}
	if !e.IsDeleted() {
		return ErrNotDeleted
	}

	e.DeletedAt = nil
	e.DeletedBy = nil
	e.StatusBeforeDelete = nil
	e.appendHistory(actor.historyActorID(), actor.Name, ActionRestored, "")
	e.UpdatedAt = time.Now()
	return nil
}

// AddComment appends a comment history item without touching status.
func (e *Expense) AddComment(actor Actor, text string) error {
	if text == "" {
		return fmt.Errorf("comment text is required")
	}
	e.appendHistory(actor.historyActorID(), actor.Name, ActionComment, text)
	e.UpdatedAt = time.Now()
	return nil
}

// TogglePriority flips the priority flag. Deliberately no history entry:
// priority changes are tracked in the audit log, not the expense's own
// history.
func (e *Expense) TogglePriority(actor Actor) error {
	if !CanTogglePriority(actor.Role) {
		return fmt.Errorf("%w: %s cannot change priority", ErrInvalidTransition, actor.Role)
	}
	e.IsHighPriority = !e.IsHighPriority
	e.UpdatedAt = time.Now()
	return nil
}
