package expense

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expense-approval/internal/auth"
	"github.com/frahmantamala/expense-approval/internal/core/events"
)

// Repository is the persistence contract for expenses. Save persists the
// expense and any history/attachment rows appended since the last load,
// guarded by the expense's lock version; it returns ErrVersionConflict when
// another writer got there first.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	Save(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id int64) (*Expense, error)
	List(ctx context.Context, filter ListFilter) ([]*Expense, error)
	CountByStatus(ctx context.Context, requestorID *int64) (map[Status]int64, error)
	PermanentDelete(ctx context.Context, id int64) error
	ReferenceExists(ctx context.Context, ref string) (bool, error)
}

// CategoryProvider resolves the submission-time rules for a category and
// optional subcategory.
type CategoryProvider interface {
	Rules(ctx context.Context, categoryID int64, subcategoryID *int64) (CategoryRules, error)
}

// MasterDataChecker verifies project and site references.
type MasterDataChecker interface {
	ProjectExists(ctx context.Context, id int64) (bool, error)
	SiteExists(ctx context.Context, id int64) (bool, error)
}

// AuditRecorder records actions outside the expense's own history.
type AuditRecorder interface {
	Record(ctx context.Context, actorID int64, actorName, action, entityType string, entityID int64, detail string)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo       Repository
	categories CategoryProvider
	masterdata MasterDataChecker
	audit      AuditRecorder
	events     EventPublisher
	logger     *slog.Logger
}

func NewService(
	repo Repository,
	categories CategoryProvider,
	masterdata MasterDataChecker,
	audit AuditRecorder,
	publisher EventPublisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		masterdata: masterdata,
		audit:      audit,
		events:     publisher,
		logger:     logger,
	}
}

const referenceRetries = 3

// Submit validates the payload against category and master data rules,
// builds the expense (auto-approving when the amount is within the
// category threshold) and persists it.
func (s *Service) Submit(ctx context.Context, requestor Actor, dto CreateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	rules, err := s.categories.Rules(ctx, dto.CategoryID, dto.SubcategoryID)
	if err != nil {
		return nil, err
	}
	if rules.AttachmentRequired && len(dto.Attachments) == 0 {
		return nil, fmt.Errorf("category requires at least one attachment")
	}

	if ok, err := s.masterdata.ProjectExists(ctx, dto.ProjectID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrProjectNotFound
	}
	if ok, err := s.masterdata.SiteExists(ctx, dto.SiteID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrSiteNotFound
	}

	e := NewExpense(requestor, dto, rules)

	// Reference numbers are random-suffixed; regenerate on the rare
	// collision instead of bubbling a unique-constraint error up.
	for attempt := 0; attempt < referenceRetries; attempt++ {
		exists, err := s.repo.ReferenceExists(ctx, e.ReferenceNumber)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		e.ReferenceNumber = NewReferenceNumber(e.SubmittedAt)
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.Error("create expense failed", "requestor_id", requestor.ID, "error", err)
		return nil, err
	}

	s.logger.Info("expense submitted",
		"expense_id", e.ID,
		"reference", e.ReferenceNumber,
		"amount", e.Amount,
		"status", e.Status)

	s.events.Publish(ctx, events.NewExpenseSubmitted(e.ID, e.ReferenceNumber, e.RequestorID, e.Amount, string(e.Status)))
	if e.Status == StatusApproved {
		s.events.Publish(ctx, events.NewExpenseStatusChanged(e.ID, e.ReferenceNumber, e.RequestorID,
			string(StatusPendingVerification), string(StatusApproved), SystemActorID, ""))
	}
	return e, nil
}

// Transition applies a single workflow move to one expense.
func (s *Service) Transition(ctx context.Context, actor Actor, expenseID int64, target Status, comment string) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	from := e.Status
	if err := e.ApplyTransition(actor, target, comment); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("expense transitioned",
		"expense_id", e.ID,
		"from", from,
		"to", e.Status,
		"actor_id", actor.ID)

	s.events.Publish(ctx, events.NewExpenseStatusChanged(e.ID, e.ReferenceNumber, e.RequestorID,
		string(from), string(e.Status), actor.Name, comment))
	return e, nil
}

// BulkTransition applies one target status across many expenses. Each item
// is processed independently in input order: a failure is reported and the
// rest continue. Context cancellation stops the loop; unprocessed ids are
// reported as failed.
func (s *Service) BulkTransition(ctx context.Context, actor Actor, dto BulkTransitionDTO) (*BulkResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	result := &BulkResult{}
	for i, id := range dto.ExpenseIDs {
		if err := ctx.Err(); err != nil {
			for _, rest := range dto.ExpenseIDs[i:] {
				result.Failed = append(result.Failed, BulkFailure{ExpenseID: rest, Error: err.Error()})
			}
			break
		}

		if _, err := s.Transition(ctx, actor, id, dto.TargetStatus, dto.Comment); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ExpenseID: id, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	s.logger.Info("bulk transition finished",
		"target", dto.TargetStatus,
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed))
	return result, nil
}

// MarkPaid records payment against an approved expense.
func (s *Service) MarkPaid(ctx context.Context, actor Actor, expenseID int64, dto MarkPaidDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentDetailsRequired, err)
	}

	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	from := e.Status
	if err := e.MarkPaid(actor, dto.PaymentReference, dto.ProofRef, dto.ProofFileName); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("expense paid",
		"expense_id", e.ID,
		"reference", e.ReferenceNumber,
		"actor_id", actor.ID)

	s.events.Publish(ctx, events.NewExpenseStatusChanged(e.ID, e.ReferenceNumber, e.RequestorID,
		string(from), string(StatusPaid), actor.Name, dto.PaymentReference))
	return e, nil
}

// SoftDelete hides an approved or rejected expense from normal views.
func (s *Service) SoftDelete(ctx context.Context, actor Actor, expenseID int64) error {
	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return err
	}

	if err := e.SoftDelete(actor); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, e); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, actor.Name, "expense.delete", "expense", e.ID, e.ReferenceNumber)
	return nil
}

// Restore brings a soft-deleted expense back with its status intact.
func (s *Service) Restore(ctx context.Context, actor Actor, expenseID int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if err := e.Restore(actor); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, e); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.ID, actor.Name, "expense.restore", "expense", e.ID, e.ReferenceNumber)
	return e, nil
}

// PermanentDelete removes a soft-deleted expense and its child rows for
// good. The expense must already be soft-deleted.
func (s *Service) PermanentDelete(ctx context.Context, actor Actor, expenseID int64) error {
	if !actor.Role.OneOf(auth.RoleAdmin) {
		return fmt.Errorf("%w: only admin may purge expenses", ErrInvalidTransition)
	}

	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return err
	}
	if !e.IsDeleted() {
		return ErrNotDeleted
	}

	if err := s.repo.PermanentDelete(ctx, e.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, actor.Name, "expense.purge", "expense", e.ID, e.ReferenceNumber)
	s.logger.Info("expense purged", "expense_id", e.ID, "actor_id", actor.ID)
	return nil
}

// AddComment appends a comment to the expense history. Commenting is open
// to anyone who can view the expense; comments never change status.
func (s *Service) AddComment(ctx context.Context, actor Actor, expenseID int64, dto CommentDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if err := visibleTo(actor, e); err != nil {
		return nil, err
	}

	if err := e.AddComment(actor, dto.Text); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, e); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.NewExpenseCommented(e.ID, e.ReferenceNumber, e.RequestorID, actor.Name, dto.Text))
	return e, nil
}

// TogglePriority flips the high-priority flag. The change lands in the
// audit log, not the expense history.
func (s *Service) TogglePriority(ctx context.Context, actor Actor, expenseID int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if err := e.TogglePriority(actor); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, e); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.ID, actor.Name, "expense.priority_toggle", "expense", e.ID,
		fmt.Sprintf("is_high_priority=%t", e.IsHighPriority))
	return e, nil
}

// visibleTo is the single read-scoping predicate: soft-deleted expenses
// exist only for admin, and requestors see only their own. Every operation
// gated on "can view" goes through it.
func visibleTo(actor Actor, e *Expense) error {
	if e.IsDeleted() && !actor.Role.OneOf(auth.RoleAdmin) {
		return ErrNotFound
	}
	if actor.Role == auth.RoleRequestor && e.RequestorID != actor.ID {
		return ErrUnauthorizedAccess
	}
	return nil
}

// GetByID loads one expense. Requestors may only see their own expenses;
// reviewer roles and admin see everything, including soft-deleted ones for
// admin.
func (s *Service) GetByID(ctx context.Context, actor Actor, expenseID int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if err := visibleTo(actor, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns expenses matching the filter. Requestors are always scoped
// to their own expenses; only admin may list deleted ones.
func (s *Service) List(ctx context.Context, actor Actor, filter ListFilter) ([]*Expense, error) {
	if actor.Role == auth.RoleRequestor {
		filter.RequestorID = &actor.ID
	}
	if filter.Deleted && !actor.Role.OneOf(auth.RoleAdmin) {
		return nil, ErrUnauthorizedAccess
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

// Stats counts live expenses per status, backing the dashboard tiles.
// Requestors only see counts over their own expenses.
func (s *Service) Stats(ctx context.Context, actor Actor) (map[Status]int64, error) {
	var requestorID *int64
	if actor.Role == auth.RoleRequestor {
		requestorID = &actor.ID
	}
	return s.repo.CountByStatus(ctx, requestorID)
}
