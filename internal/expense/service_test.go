package expense_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-approval/internal/auth"
	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/frahmantamala/expense-approval/internal/expense"
)

type mockRepository struct {
	expenses    map[int64]*expense.Expense
	nextID      int64
	createError error
	saveError   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		expenses: make(map[int64]*expense.Expense),
		nextID:   1,
	}
}

func (m *mockRepository) Create(ctx context.Context, e *expense.Expense) error {
	if m.createError != nil {
		return m.createError
	}
	e.ID = m.nextID
	m.nextID++
	m.expenses[e.ID] = e
	return nil
}

func (m *mockRepository) Save(ctx context.Context, e *expense.Expense) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.expenses[e.ID] = e
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, expense.ErrNotFound
	}
	return e, nil
}

func (m *mockRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	var result []*expense.Expense
	for _, e := range m.expenses {
		if e.IsDeleted() != filter.Deleted {
			continue
		}
		if filter.RequestorID != nil && e.RequestorID != *filter.RequestorID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (m *mockRepository) CountByStatus(ctx context.Context, requestorID *int64) (map[expense.Status]int64, error) {
	counts := make(map[expense.Status]int64)
	for _, e := range m.expenses {
		if e.IsDeleted() {
			continue
		}
		if requestorID != nil && e.RequestorID != *requestorID {
			continue
		}
		counts[e.Status]++
	}
	return counts, nil
}

func (m *mockRepository) PermanentDelete(ctx context.Context, id int64) error {
	if _, ok := m.expenses[id]; !ok {
		return expense.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *mockRepository) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	return false, nil
}

type mockCategoryProvider struct {
	rules map[int64]expense.CategoryRules
}

func (m *mockCategoryProvider) Rules(ctx context.Context, categoryID int64, subcategoryID *int64) (expense.CategoryRules, error) {
	rules, ok := m.rules[categoryID]
	if !ok {
		return expense.CategoryRules{}, expense.ErrCategoryNotFound
	}
	return rules, nil
}

type mockMasterData struct {
	projects map[int64]bool
	sites    map[int64]bool
}

func (m *mockMasterData) ProjectExists(ctx context.Context, id int64) (bool, error) {
	return m.projects[id], nil
}

func (m *mockMasterData) SiteExists(ctx context.Context, id int64) (bool, error) {
	return m.sites[id], nil
}

type recordedAudit struct {
	Action   string
	EntityID int64
	Detail   string
}

type mockAudit struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (m *mockAudit) Record(ctx context.Context, actorID int64, actorName, action, entityType string, entityID int64, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, recordedAudit{Action: action, EntityID: entityID, Detail: detail})
}

type mockPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) typesSeen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, e := range m.events {
		types = append(types, e.EventType())
	}
	return types
}

var _ = Describe("Expense Service", func() {
	var (
		repo       *mockRepository
		categories *mockCategoryProvider
		masterdata *mockMasterData
		audit      *mockAudit
		publisher  *mockPublisher
		svc        *expense.Service
		ctx        context.Context
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	validDTO := expense.CreateExpenseDTO{
		CategoryID:  1,
		Amount:      5000,
		Description: "team travel",
		ProjectID:   10,
		SiteID:      20,
	}

	BeforeEach(func() {
		repo = newMockRepository()
		categories = &mockCategoryProvider{rules: map[int64]expense.CategoryRules{
			1: {AutoApproveAmount: 1000},
			2: {AutoApproveAmount: 0, AttachmentRequired: true},
		}}
		masterdata = &mockMasterData{
			projects: map[int64]bool{10: true},
			sites:    map[int64]bool{20: true},
		}
		audit = &mockAudit{}
		publisher = &mockPublisher{}
		svc = expense.NewService(repo, categories, masterdata, audit, publisher, testLogger)
		ctx = context.Background()
	})

	submitApproved := func() *expense.Expense {
		dto := validDTO
		dto.Amount = 500
		e, err := svc.Submit(ctx, requestor, dto)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Status).To(Equal(expense.StatusApproved))
		return e
	}

	Describe("Submit", func() {
		It("persists a valid claim and publishes the submitted event", func() {
			e, err := svc.Submit(ctx, requestor, validDTO)

			Expect(err).NotTo(HaveOccurred())
			Expect(e.ID).NotTo(BeZero())
			Expect(e.Status).To(Equal(expense.StatusPendingVerification))
			Expect(publisher.typesSeen()).To(ContainElement(events.ExpenseSubmittedEvent))
		})

		It("publishes a status change alongside the submission when auto-approved", func() {
			submitApproved()
			Expect(publisher.typesSeen()).To(ConsistOf(
				events.ExpenseSubmittedEvent,
				events.ExpenseStatusChangedEvent,
			))
		})

		It("rejects a negative amount", func() {
			dto := validDTO
			dto.Amount = -1
			_, err := svc.Submit(ctx, requestor, dto)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown category", func() {
			dto := validDTO
			dto.CategoryID = 99
			_, err := svc.Submit(ctx, requestor, dto)
			Expect(err).To(MatchError(expense.ErrCategoryNotFound))
		})

		It("enforces the category's attachment requirement", func() {
			dto := validDTO
			dto.CategoryID = 2
			_, err := svc.Submit(ctx, requestor, dto)
			Expect(err).To(HaveOccurred())

			dto.Attachments = []expense.AttachmentRef{{Ref: "blob-1"}}
			_, err = svc.Submit(ctx, requestor, dto)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an unknown project", func() {
			dto := validDTO
			dto.ProjectID = 99
			_, err := svc.Submit(ctx, requestor, dto)
			Expect(err).To(MatchError(expense.ErrProjectNotFound))
		})

		It("rejects an unknown site", func() {
			dto := validDTO
			dto.SiteID = 99
			_, err := svc.Submit(ctx, requestor, dto)
			Expect(err).To(MatchError(expense.ErrSiteNotFound))
		})
	})

	Describe("Transition", func() {
		It("persists a successful transition", func() {
			e, err := svc.Submit(ctx, requestor, validDTO)
			Expect(err).NotTo(HaveOccurred())

			moved, err := svc.Transition(ctx, verifier, e.ID, expense.StatusPendingApproval, "ok")
			Expect(err).NotTo(HaveOccurred())
			Expect(moved.Status).To(Equal(expense.StatusPendingApproval))

			stored, _ := repo.GetByID(ctx, e.ID)
			Expect(stored.Status).To(Equal(expense.StatusPendingApproval))
		})

		It("returns not found for an unknown expense", func() {
			_, err := svc.Transition(ctx, verifier, 404, expense.StatusPendingApproval, "")
			Expect(err).To(MatchError(expense.ErrNotFound))
		})

		It("surfaces invalid transitions without saving", func() {
			e, _ := svc.Submit(ctx, requestor, validDTO)
			_, err := svc.Transition(ctx, approver, e.ID, expense.StatusApproved, "")
			Expect(err).To(MatchError(expense.ErrInvalidTransition))
		})
	})

	Describe("BulkTransition", func() {
		It("reports per-item results in input order and keeps going past failures", func() {
			a, _ := svc.Submit(ctx, requestor, validDTO)
			b := submitApproved() // already approved, verify will fail
			c, _ := svc.Submit(ctx, requestor, validDTO)

			result, err := svc.BulkTransition(ctx, verifier, expense.BulkTransitionDTO{
				ExpenseIDs:   []int64{a.ID, b.ID, 404, c.ID},
				TargetStatus: expense.StatusPendingApproval,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Succeeded).To(Equal([]int64{a.ID, c.ID}))
			Expect(result.Failed).To(HaveLen(2))
			Expect(result.Failed[0].ExpenseID).To(Equal(b.ID))
			Expect(result.Failed[1].ExpenseID).To(Equal(int64(404)))
		})

		It("rejects an empty id list", func() {
			_, err := svc.BulkTransition(ctx, verifier, expense.BulkTransitionDTO{
				TargetStatus: expense.StatusPendingApproval,
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an invalid target status", func() {
			_, err := svc.BulkTransition(ctx, verifier, expense.BulkTransitionDTO{
				ExpenseIDs:   []int64{1},
				TargetStatus: expense.Status("nonsense"),
			})
			Expect(err).To(HaveOccurred())
		})

		It("stops issuing transitions once the context is cancelled", func() {
			a, _ := svc.Submit(ctx, requestor, validDTO)
			b, _ := svc.Submit(ctx, requestor, validDTO)

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			result, err := svc.BulkTransition(cancelled, verifier, expense.BulkTransitionDTO{
				ExpenseIDs:   []int64{a.ID, b.ID},
				TargetStatus: expense.StatusPendingApproval,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Succeeded).To(BeEmpty())
			Expect(result.Failed).To(HaveLen(2))
		})
	})

	Describe("MarkPaid", func() {
		It("pays an approved expense", func() {
			e := submitApproved()

			paid, err := svc.MarkPaid(ctx, admin, e.ID, expense.MarkPaidDTO{
				PaymentReference: "TRX-1",
				ProofRef:         "blob-1",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(paid.Status).To(Equal(expense.StatusPaid))
		})

		It("refuses missing payment details before touching the expense", func() {
			e := submitApproved()
			_, err := svc.MarkPaid(ctx, admin, e.ID, expense.MarkPaidDTO{PaymentReference: "TRX-1"})
			Expect(err).To(MatchError(expense.ErrPaymentDetailsRequired))

			stored, _ := repo.GetByID(ctx, e.ID)
			Expect(stored.Status).To(Equal(expense.StatusApproved))
		})
	})

	Describe("SoftDelete, Restore and PermanentDelete", func() {
		It("soft-deletes and records an audit entry", func() {
			e := submitApproved()
			Expect(svc.SoftDelete(ctx, admin, e.ID)).To(Succeed())

			Expect(audit.entries).To(HaveLen(1))
			Expect(audit.entries[0].Action).To(Equal("expense.delete"))
			Expect(audit.entries[0].EntityID).To(Equal(e.ID))
		})

		It("restores a deleted expense", func() {
			e := submitApproved()
			Expect(svc.SoftDelete(ctx, admin, e.ID)).To(Succeed())

			restored, err := svc.Restore(ctx, admin, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.IsDeleted()).To(BeFalse())
			Expect(restored.Status).To(Equal(expense.StatusApproved))
		})

		It("purges only soft-deleted expenses", func() {
			e := submitApproved()
			Expect(svc.PermanentDelete(ctx, admin, e.ID)).To(MatchError(expense.ErrNotDeleted))

			Expect(svc.SoftDelete(ctx, admin, e.ID)).To(Succeed())
			Expect(svc.PermanentDelete(ctx, admin, e.ID)).To(Succeed())

			_, err := repo.GetByID(ctx, e.ID)
			Expect(err).To(MatchError(expense.ErrNotFound))
		})

		It("refuses purge for non-admin roles", func() {
			e := submitApproved()
			Expect(svc.SoftDelete(ctx, admin, e.ID)).To(Succeed())
			Expect(svc.PermanentDelete(ctx, verifier, e.ID)).To(MatchError(expense.ErrInvalidTransition))
		})
	})

	Describe("TogglePriority", func() {
		It("records the flip in the audit log, not history", func() {
			e, _ := svc.Submit(ctx, requestor, validDTO)
			historyBefore := len(e.History)

			toggled, err := svc.TogglePriority(ctx, approver, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(toggled.IsHighPriority).To(BeTrue())
			Expect(toggled.History).To(HaveLen(historyBefore))

			Expect(audit.entries).To(HaveLen(1))
			Expect(audit.entries[0].Action).To(Equal("expense.priority_toggle"))
			Expect(audit.entries[0].Detail).To(Equal("is_high_priority=true"))
		})
	})

	Describe("AddComment", func() {
		It("appends the comment and publishes the commented event", func() {
			e, _ := svc.Submit(ctx, requestor, validDTO)
			historyBefore := len(e.History)

			commented, err := svc.AddComment(ctx, verifier, e.ID, expense.CommentDTO{Text: "looks fine"})
			Expect(err).NotTo(HaveOccurred())
			Expect(commented.Status).To(Equal(expense.StatusPendingVerification))
			Expect(commented.History).To(HaveLen(historyBefore + 1))
			Expect(commented.History[historyBefore].Comment).To(Equal("looks fine"))
			Expect(publisher.typesSeen()).To(ContainElement(events.ExpenseCommentedEvent))
		})

		It("refuses a requestor commenting on someone else's expense", func() {
			e, _ := svc.Submit(ctx, requestor, validDTO)
			historyBefore := len(e.History)

			stranger := expense.Actor{ID: 77, Name: "Other", Role: auth.RoleRequestor}
			_, err := svc.AddComment(ctx, stranger, e.ID, expense.CommentDTO{Text: "drive-by"})
			Expect(err).To(MatchError(expense.ErrUnauthorizedAccess))

			stored, _ := repo.GetByID(ctx, e.ID)
			Expect(stored.History).To(HaveLen(historyBefore))
		})

		It("hides soft-deleted expenses from non-admin commenters", func() {
			e := submitApproved()
			Expect(svc.SoftDelete(ctx, admin, e.ID)).To(Succeed())

			_, err := svc.AddComment(ctx, verifier, e.ID, expense.CommentDTO{Text: "late note"})
			Expect(err).To(MatchError(expense.ErrNotFound))
		})

		It("rejects an empty comment", func() {
			e, _ := svc.Submit(ctx, requestor, validDTO)
			_, err := svc.AddComment(ctx, verifier, e.ID, expense.CommentDTO{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetByID", func() {
		It("lets the owning requestor read their expense", func() {
			e, _ := svc.Submit(ctx, requestor, validDTO)
			got, err := svc.GetByID(ctx, requestor, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(e.ID))
		})

		It("hides other requestors' expenses", func() {
			e, _ := svc.Submit(ctx, requestor, validDTO)
			other := expense.Actor{ID: 77, Name: "Other", Role: auth.RoleRequestor}
			_, err := svc.GetByID(ctx, other, e.ID)
			Expect(err).To(MatchError(expense.ErrUnauthorizedAccess))
		})

		It("hides soft-deleted expenses from non-admins", func() {
			e := submitApproved()
			Expect(svc.SoftDelete(ctx, admin, e.ID)).To(Succeed())

			_, err := svc.GetByID(ctx, verifier, e.ID)
			Expect(err).To(MatchError(expense.ErrNotFound))

			got, err := svc.GetByID(ctx, admin, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.IsDeleted()).To(BeTrue())
		})
	})

	Describe("List", func() {
		It("scopes requestors to their own expenses", func() {
			_, err := svc.Submit(ctx, requestor, validDTO)
			Expect(err).NotTo(HaveOccurred())

			other := expense.Actor{ID: 77, Name: "Other", Role: auth.RoleRequestor}
			list, err := svc.List(ctx, other, expense.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())

			mine, err := svc.List(ctx, requestor, expense.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(1))
		})

		It("restricts the deleted view to admin", func() {
			_, err := svc.List(ctx, verifier, expense.ListFilter{Deleted: true})
			Expect(err).To(MatchError(expense.ErrUnauthorizedAccess))

			_, err = svc.List(ctx, admin, expense.ListFilter{Deleted: true})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Stats", func() {
		It("counts live expenses per status", func() {
			_, err := svc.Submit(ctx, requestor, validDTO)
			Expect(err).NotTo(HaveOccurred())
			approved := submitApproved()

			counts, err := svc.Stats(ctx, verifier)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts[expense.StatusPendingVerification]).To(Equal(int64(1)))
			Expect(counts[expense.StatusApproved]).To(Equal(int64(1)))

			Expect(svc.SoftDelete(ctx, admin, approved.ID)).To(Succeed())
			counts, err = svc.Stats(ctx, verifier)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts[expense.StatusApproved]).To(BeZero())
		})

		It("scopes requestors to their own counts", func() {
			_, err := svc.Submit(ctx, requestor, validDTO)
			Expect(err).NotTo(HaveOccurred())

			other := expense.Actor{ID: 77, Name: "Other", Role: auth.RoleRequestor}
			counts, err := svc.Stats(ctx, other)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(BeEmpty())
		})
	})

	Describe("repository failures", func() {
		It("surfaces create errors", func() {
			repo.createError = errors.New("db down")
			_, err := svc.Submit(ctx, requestor, validDTO)
			Expect(err).To(HaveOccurred())
		})

		It("surfaces version conflicts from save", func() {
			e, _ := svc.Submit(ctx, requestor, validDTO)
			repo.saveError = expense.ErrVersionConflict

			_, err := svc.Transition(ctx, verifier, e.ID, expense.StatusPendingApproval, "")
			Expect(err).To(MatchError(expense.ErrVersionConflict))
		})
	})
})
