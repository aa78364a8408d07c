package expense

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	internal "github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/auth"
	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/frahmantamala/expense-approval/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Submit(ctx context.Context, requestor Actor, dto CreateExpenseDTO) (*Expense, error)
	Transition(ctx context.Context, actor Actor, expenseID int64, target Status, comment string) (*Expense, error)
	BulkTransition(ctx context.Context, actor Actor, dto BulkTransitionDTO) (*BulkResult, error)
	MarkPaid(ctx context.Context, actor Actor, expenseID int64, dto MarkPaidDTO) (*Expense, error)
	SoftDelete(ctx context.Context, actor Actor, expenseID int64) error
	Restore(ctx context.Context, actor Actor, expenseID int64) (*Expense, error)
	PermanentDelete(ctx context.Context, actor Actor, expenseID int64) error
	AddComment(ctx context.Context, actor Actor, expenseID int64, dto CommentDTO) (*Expense, error)
	TogglePriority(ctx context.Context, actor Actor, expenseID int64) (*Expense, error)
	GetByID(ctx context.Context, actor Actor, expenseID int64) (*Expense, error)
	List(ctx context.Context, actor Actor, filter ListFilter) ([]*Expense, error)
	Stats(ctx context.Context, actor Actor) (map[Status]int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func actorFromRequest(r *http.Request) (Actor, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		return Actor{}, false
	}
	return Actor{ID: user.ID, Name: user.Name, Role: user.Role}, true
}

// writeDomainError translates the expense package's sentinel errors into
// the shared error envelope.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.HandleServiceError(w, internal.NewNotFoundError("expense not found", internal.ErrCodeExpenseNotFound))
	case errors.Is(err, ErrUnauthorizedAccess):
		h.WriteError(w, http.StatusForbidden, "you do not have access to this expense")
	case errors.Is(err, ErrPaymentDetailsRequired):
		h.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeMissingPaymentRef))
	case errors.Is(err, ErrInvalidTransition):
		h.HandleServiceError(w, internal.NewInvalidTransitionError(err.Error()))
	case errors.Is(err, ErrNotDeletable):
		h.HandleServiceError(w, internal.NewInvalidTransitionError(err.Error()))
	case errors.Is(err, ErrAlreadyDeleted), errors.Is(err, ErrNotDeleted):
		h.HandleServiceError(w, internal.NewInvalidTransitionError(err.Error()))
	case errors.Is(err, ErrVersionConflict):
		h.HandleServiceError(w, internal.NewConflictError("expense was modified concurrently, retry", internal.ErrCodeVersionConflict))
	case errors.Is(err, ErrCategoryNotFound):
		h.HandleServiceError(w, internal.NewValidationError("category not found", internal.ErrCodeMissingCategory))
	case errors.Is(err, ErrProjectNotFound):
		h.HandleServiceError(w, internal.NewValidationError("project not found", internal.ErrCodeMissingProject))
	case errors.Is(err, ErrSiteNotFound):
		h.HandleServiceError(w, internal.NewValidationError("site not found", internal.ErrCodeMissingSite))
	default:
		var appErr *internal.AppError
		if errors.As(err, &appErr) {
			h.HandleServiceError(w, appErr)
			return
		}
		h.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
	}
}

func (h *Handler) expenseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid expense ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid expense ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateExpense: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := h.Service.Submit(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("CreateExpense: service error", "error", err, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	h.Logger.Info("CreateExpense: expense created",
		"expense_id", expense.ID,
		"reference", expense.ReferenceNumber,
		"status", expense.Status)

	h.WriteJSON(w, http.StatusCreated, expense)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	expense, err := h.Service.GetByID(r.Context(), actor, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := ListFilter{Limit: 20}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			filter.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := Status(statusStr)
		if !status.Valid() {
			h.WriteError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = &status
	}
	if priorityStr := r.URL.Query().Get("high_priority"); priorityStr != "" {
		if p, err := strconv.ParseBool(priorityStr); err == nil {
			filter.HighPriority = &p
		}
	}
	if deletedStr := r.URL.Query().Get("deleted"); deletedStr != "" {
		if d, err := strconv.ParseBool(deletedStr); err == nil {
			filter.Deleted = d
		}
	}
	// Reviewer roles can narrow a listing to their own submissions;
	// requestors are scoped server-side regardless.
	if mineStr := r.URL.Query().Get("mine"); mineStr != "" {
		if m, err := strconv.ParseBool(mineStr); err == nil && m {
			filter.RequestorID = &actor.ID
		}
	}

	expenses, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		h.Logger.Error("ListExpenses: service error", "error", err, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// ExpenseStats returns live per-status counts.
func (h *Handler) ExpenseStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	counts, err := h.Service.Stats(r.Context(), actor)
	if err != nil {
		h.Logger.Error("ExpenseStats: service error", "error", err, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"counts": counts})
}

// transitionHandler builds a handler that moves an expense to a fixed
// target status; verify, approve and reject share it.
func (h *Handler) transitionHandler(target Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			h.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		id, ok := h.expenseID(w, r)
		if !ok {
			return
		}

		var dto TransitionDTO
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
				h.WriteError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		expense, err := h.Service.Transition(r.Context(), actor, id, target, dto.Comment)
		if err != nil {
			h.Logger.Error("Transition: service error", "error", err, "expense_id", id, "target", target)
			h.writeDomainError(w, err)
			return
		}

		h.WriteJSON(w, http.StatusOK, expense)
	}
}

func (h *Handler) VerifyExpense(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(StatusPendingApproval)(w, r)
}

func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(StatusApproved)(w, r)
}

func (h *Handler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(StatusRejected)(w, r)
}

func (h *Handler) BulkTransition(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto BulkTransitionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.BulkTransition(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("BulkTransition: service error", "error", err, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	// Per-item failures are part of a successful bulk response.
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	var dto MarkPaidDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := h.Service.MarkPaid(r.Context(), actor, id, dto)
	if err != nil {
		h.Logger.Error("MarkPaid: service error", "error", err, "expense_id", id, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	if err := h.Service.SoftDelete(r.Context(), actor, id); err != nil {
		h.Logger.Error("DeleteExpense: service error", "error", err, "expense_id", id, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RestoreExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	expense, err := h.Service.Restore(r.Context(), actor, id)
	if err != nil {
		h.Logger.Error("RestoreExpense: service error", "error", err, "expense_id", id, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) PurgeExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	if err := h.Service.PermanentDelete(r.Context(), actor, id); err != nil {
		h.Logger.Error("PurgeExpense: service error", "error", err, "expense_id", id, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	var dto CommentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := h.Service.AddComment(r.Context(), actor, id, dto)
	if err != nil {
		h.Logger.Error("AddComment: service error", "error", err, "expense_id", id, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, expense)
}

func (h *Handler) TogglePriority(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	expense, err := h.Service.TogglePriority(r.Context(), actor, id)
	if err != nil {
		h.Logger.Error("TogglePriority: service error", "error", err, "expense_id", id, "user_id", actor.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}
