package expense_test

import (
	"regexp"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-approval/internal/auth"
	"github.com/frahmantamala/expense-approval/internal/expense"
)

var (
	requestor = expense.Actor{ID: 1, Name: "Rina Requestor", Role: auth.RoleRequestor}
	verifier  = expense.Actor{ID: 2, Name: "Vino Verifier", Role: auth.RoleVerifier}
	approver  = expense.Actor{ID: 3, Name: "Agus Approver", Role: auth.RoleApprover}
	admin     = expense.Actor{ID: 4, Name: "Ayu Admin", Role: auth.RoleAdmin}
)

func newClaim(amount int64, rules expense.CategoryRules) *expense.Expense {
	return expense.NewExpense(requestor, expense.CreateExpenseDTO{
		CategoryID:  1,
		Amount:      amount,
		Description: "client dinner",
		ProjectID:   1,
		SiteID:      1,
	}, rules)
}

func lastAction(e *expense.Expense) expense.Action {
	return e.History[len(e.History)-1].Action
}

var _ = Describe("NewExpense", func() {
	rules := expense.CategoryRules{AutoApproveAmount: 1000}

	It("starts in pending verification with a submitted history entry", func() {
		e := newClaim(5000, rules)

		Expect(e.Status).To(Equal(expense.StatusPendingVerification))
		Expect(e.History).To(HaveLen(1))
		Expect(e.History[0].Action).To(Equal(expense.ActionSubmitted))
		Expect(e.History[0].ActorID).To(Equal("1"))
		Expect(e.History[0].ActorName).To(Equal("Rina Requestor"))
	})

	It("auto-approves amounts at or below the category threshold", func() {
		e := newClaim(500, rules)

		Expect(e.Status).To(Equal(expense.StatusApproved))
		Expect(e.History).To(HaveLen(2))
		Expect(e.History[0].Action).To(Equal(expense.ActionSubmitted))
		Expect(e.History[1].Action).To(Equal(expense.ActionAutoApproved))
		Expect(e.History[1].ActorID).To(Equal(expense.SystemActorID))
	})

	It("auto-approves an amount exactly at the threshold", func() {
		e := newClaim(1000, rules)
		Expect(e.Status).To(Equal(expense.StatusApproved))
	})

	It("does not auto-approve an amount just above the threshold", func() {
		e := newClaim(1001, rules)
		Expect(e.Status).To(Equal(expense.StatusPendingVerification))
		Expect(e.History).To(HaveLen(1))
	})

	It("sends a zero-threshold category through the full flow", func() {
		e := newClaim(100, expense.CategoryRules{AutoApproveAmount: 0})
		Expect(e.Status).To(Equal(expense.StatusPendingVerification))
	})

	It("auto-approves a zero amount against a zero threshold", func() {
		e := newClaim(0, expense.CategoryRules{AutoApproveAmount: 0})
		Expect(e.Status).To(Equal(expense.StatusApproved))
	})

	It("generates references shaped like EXP-YYYYMMDD-XXXX", func() {
		ref := expense.NewReferenceNumber(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
		Expect(ref).To(MatchRegexp(`^EXP-20260314-[A-Z0-9]{4}$`))
	})

	It("generates distinct reference suffixes", func() {
		now := time.Now()
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			seen[expense.NewReferenceNumber(now)] = true
		}
		// 36^4 suffixes; 50 draws colliding en masse would mean the
		// generator is broken.
		Expect(len(seen)).To(BeNumerically(">", 45))
	})

	It("records submission attachments as receipts", func() {
		e := expense.NewExpense(requestor, expense.CreateExpenseDTO{
			CategoryID:  1,
			Amount:      5000,
			Description: "flight",
			ProjectID:   1,
			SiteID:      1,
			Attachments: []expense.AttachmentRef{{Ref: "blob-1", FileName: "ticket.pdf"}},
		}, expense.CategoryRules{})

		Expect(e.Attachments).To(HaveLen(1))
		Expect(e.Attachments[0].Kind).To(Equal(expense.AttachmentKindReceipt))
	})
})

var _ = Describe("ApplyTransition", func() {
	var e *expense.Expense

	BeforeEach(func() {
		e = newClaim(5000, expense.CategoryRules{AutoApproveAmount: 1000})
	})

	It("lets a verifier verify a pending expense", func() {
		Expect(e.ApplyTransition(verifier, expense.StatusPendingApproval, "looks fine")).To(Succeed())
		Expect(e.Status).To(Equal(expense.StatusPendingApproval))
		Expect(lastAction(e)).To(Equal(expense.ActionVerified))
		Expect(e.History[len(e.History)-1].Comment).To(Equal("looks fine"))
	})

	It("lets a verifier reject at the verification stage", func() {
		Expect(e.ApplyTransition(verifier, expense.StatusRejected, "no receipt")).To(Succeed())
		Expect(e.Status).To(Equal(expense.StatusRejected))
		Expect(lastAction(e)).To(Equal(expense.ActionRejected))
	})

	It("refuses an approver acting at the verification stage", func() {
		err := e.ApplyTransition(approver, expense.StatusPendingApproval, "")
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
		Expect(e.Status).To(Equal(expense.StatusPendingVerification))
		Expect(e.History).To(HaveLen(1))
	})

	It("refuses an admin shortcutting the workflow", func() {
		err := e.ApplyTransition(admin, expense.StatusApproved, "")
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
	})

	It("refuses the requestor approving their own expense", func() {
		err := e.ApplyTransition(requestor, expense.StatusPendingApproval, "")
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
	})

	It("lets an approver approve after verification", func() {
		Expect(e.ApplyTransition(verifier, expense.StatusPendingApproval, "")).To(Succeed())
		Expect(e.ApplyTransition(approver, expense.StatusApproved, "")).To(Succeed())
		Expect(e.Status).To(Equal(expense.StatusApproved))
	})

	It("refuses a verifier acting at the approval stage", func() {
		Expect(e.ApplyTransition(verifier, expense.StatusPendingApproval, "")).To(Succeed())
		err := e.ApplyTransition(verifier, expense.StatusApproved, "")
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
	})

	It("treats rejected as terminal", func() {
		Expect(e.ApplyTransition(verifier, expense.StatusRejected, "")).To(Succeed())
		err := e.ApplyTransition(approver, expense.StatusApproved, "")
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
	})

	It("routes the paid target through MarkPaid", func() {
		err := e.ApplyTransition(admin, expense.StatusPaid, "")
		Expect(err).To(MatchError(expense.ErrPaymentDetailsRequired))
	})

	It("refuses transitions on a soft-deleted expense", func() {
		Expect(e.ApplyTransition(verifier, expense.StatusRejected, "")).To(Succeed())
		Expect(e.SoftDelete(admin)).To(Succeed())

		err := e.ApplyTransition(verifier, expense.StatusPendingApproval, "")
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
	})

	It("leaves status and history untouched on a failed transition", func() {
		before := len(e.History)
		_ = e.ApplyTransition(requestor, expense.StatusApproved, "")
		Expect(e.Status).To(Equal(expense.StatusPendingVerification))
		Expect(e.History).To(HaveLen(before))
	})

	It("keeps history in strict append order", func() {
		Expect(e.ApplyTransition(verifier, expense.StatusPendingApproval, "")).To(Succeed())
		Expect(e.ApplyTransition(approver, expense.StatusApproved, "")).To(Succeed())

		for i, h := range e.History {
			Expect(h.Position).To(Equal(i))
		}
	})
})

var _ = Describe("MarkPaid", func() {
	var e *expense.Expense

	BeforeEach(func() {
		e = newClaim(5000, expense.CategoryRules{AutoApproveAmount: 1000})
		Expect(e.ApplyTransition(verifier, expense.StatusPendingApproval, "")).To(Succeed())
		Expect(e.ApplyTransition(approver, expense.StatusApproved, "")).To(Succeed())
	})

	It("marks an approved expense paid with reference and proof", func() {
		Expect(e.MarkPaid(admin, "TRX-123", "blob-9", "proof.pdf")).To(Succeed())

		Expect(e.Status).To(Equal(expense.StatusPaid))
		Expect(e.PaidAt).NotTo(BeNil())
		Expect(*e.PaidBy).To(Equal(admin.ID))
		Expect(*e.PaymentReference).To(Equal("TRX-123"))
		Expect(lastAction(e)).To(Equal(expense.ActionMarkedPaid))

		last := e.Attachments[len(e.Attachments)-1]
		Expect(last.Kind).To(Equal(expense.AttachmentKindPaymentProof))
		Expect(last.Ref).To(Equal("blob-9"))
	})

	It("allows verifier and approver to record payment", func() {
		Expect(e.MarkPaid(verifier, "TRX-1", "blob-1", "")).To(Succeed())
	})

	It("requires the payment reference", func() {
		err := e.MarkPaid(admin, "", "blob-9", "proof.pdf")
		Expect(err).To(MatchError(expense.ErrPaymentDetailsRequired))
		Expect(e.Status).To(Equal(expense.StatusApproved))
	})

	It("requires the proof attachment", func() {
		err := e.MarkPaid(admin, "TRX-123", "", "")
		Expect(err).To(MatchError(expense.ErrPaymentDetailsRequired))
		Expect(e.Status).To(Equal(expense.StatusApproved))
	})

	It("refuses the requestor role", func() {
		err := e.MarkPaid(requestor, "TRX-123", "blob-9", "")
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
	})

	It("refuses paying an expense that is not approved", func() {
		fresh := newClaim(5000, expense.CategoryRules{})
		err := fresh.MarkPaid(admin, "TRX-123", "blob-9", "")
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
	})

	It("refuses paying twice", func() {
		Expect(e.MarkPaid(admin, "TRX-123", "blob-9", "")).To(Succeed())
		err := e.MarkPaid(admin, "TRX-456", "blob-10", "")
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
	})
})

var _ = Describe("SoftDelete and Restore", func() {
	var e *expense.Expense

	approvedExpense := func() *expense.Expense {
		x := newClaim(500, expense.CategoryRules{AutoApproveAmount: 1000})
		Expect(x.Status).To(Equal(expense.StatusApproved))
		return x
	}

	BeforeEach(func() {
		e = approvedExpense()
	})

	It("soft-deletes an approved expense and snapshots its status", func() {
		Expect(e.SoftDelete(admin)).To(Succeed())

		Expect(e.IsDeleted()).To(BeTrue())
		Expect(e.Status).To(Equal(expense.StatusApproved))
		Expect(*e.StatusBeforeDelete).To(Equal(expense.StatusApproved))
		Expect(*e.DeletedBy).To(Equal(admin.ID))
		Expect(lastAction(e)).To(Equal(expense.ActionDeleted))
	})

	It("soft-deletes a rejected expense", func() {
		r := newClaim(5000, expense.CategoryRules{})
		Expect(r.ApplyTransition(verifier, expense.StatusRejected, "")).To(Succeed())
		Expect(r.SoftDelete(admin)).To(Succeed())
	})

	It("refuses deleting a pending expense", func() {
		p := newClaim(5000, expense.CategoryRules{})
		err := p.SoftDelete(admin)
		Expect(err).To(MatchError(expense.ErrNotDeletable))
	})

	It("refuses deleting a paid expense", func() {
		Expect(e.MarkPaid(admin, "TRX-1", "blob-1", "")).To(Succeed())
		err := e.SoftDelete(admin)
		Expect(err).To(MatchError(expense.ErrNotDeletable))
	})

	It("refuses non-admin actors", func() {
		err := e.SoftDelete(verifier)
		Expect(err).To(MatchError(expense.ErrInvalidTransition))
	})

	It("refuses deleting twice", func() {
		Expect(e.SoftDelete(admin)).To(Succeed())
		Expect(e.SoftDelete(admin)).To(MatchError(expense.ErrAlreadyDeleted))
	})

	It("restores with the pre-delete status intact", func() {
		Expect(e.SoftDelete(admin)).To(Succeed())
		Expect(e.Restore(admin)).To(Succeed())

		Expect(e.IsDeleted()).To(BeFalse())
		Expect(e.Status).To(Equal(expense.StatusApproved))
		Expect(e.StatusBeforeDelete).To(BeNil())
		Expect(e.DeletedBy).To(BeNil())
		Expect(lastAction(e)).To(Equal(expense.ActionRestored))
	})

	It("refuses restoring an expense that is not deleted", func() {
		Expect(e.Restore(admin)).To(MatchError(expense.ErrNotDeleted))
	})

	It("keeps delete and restore visible in history", func() {
		Expect(e.SoftDelete(admin)).To(Succeed())
		Expect(e.Restore(admin)).To(Succeed())

		actions := []expense.Action{}
		for _, h := range e.History {
			actions = append(actions, h.Action)
		}
		Expect(actions).To(ContainElements(expense.ActionDeleted, expense.ActionRestored))
	})
})

var _ = Describe("AddComment", func() {
	It("appends a comment without changing status", func() {
		e := newClaim(5000, expense.CategoryRules{})
		Expect(e.AddComment(verifier, "need the invoice")).To(Succeed())

		Expect(e.Status).To(Equal(expense.StatusPendingVerification))
		Expect(lastAction(e)).To(Equal(expense.ActionComment))
		Expect(e.History[len(e.History)-1].Comment).To(Equal("need the invoice"))
	})

	It("rejects empty comments", func() {
		e := newClaim(5000, expense.CategoryRules{})
		Expect(e.AddComment(verifier, "")).To(HaveOccurred())
	})
})

var _ = Describe("TogglePriority", func() {
	It("flips the flag without touching history", func() {
		e := newClaim(5000, expense.CategoryRules{})
		before := len(e.History)

		Expect(e.TogglePriority(verifier)).To(Succeed())
		Expect(e.IsHighPriority).To(BeTrue())
		Expect(e.History).To(HaveLen(before))

		Expect(e.TogglePriority(admin)).To(Succeed())
		Expect(e.IsHighPriority).To(BeFalse())
	})

	It("refuses the requestor role", func() {
		e := newClaim(5000, expense.CategoryRules{})
		Expect(e.TogglePriority(requestor)).To(MatchError(expense.ErrInvalidTransition))
	})
})

var _ = Describe("CanTransition", func() {
	It("matches the transition table without mutating", func() {
		Expect(expense.CanTransition(expense.StatusPendingVerification, auth.RoleVerifier, expense.StatusPendingApproval)).To(BeTrue())
		Expect(expense.CanTransition(expense.StatusPendingVerification, auth.RoleApprover, expense.StatusPendingApproval)).To(BeFalse())
		Expect(expense.CanTransition(expense.StatusPendingApproval, auth.RoleApprover, expense.StatusApproved)).To(BeTrue())
		Expect(expense.CanTransition(expense.StatusApproved, auth.RoleAdmin, expense.StatusPaid)).To(BeTrue())
		Expect(expense.CanTransition(expense.StatusPaid, auth.RoleAdmin, expense.StatusApproved)).To(BeFalse())
		Expect(expense.CanTransition(expense.StatusRejected, auth.RoleApprover, expense.StatusApproved)).To(BeFalse())
	})
})

var _ = Describe("reference number format", func() {
	It("uses only uppercase letters and digits in the suffix", func() {
		re := regexp.MustCompile(`^EXP-\d{8}-[A-Z0-9]{4}$`)
		for i := 0; i < 20; i++ {
			Expect(re.MatchString(expense.NewReferenceNumber(time.Now()))).To(BeTrue())
		}
	})
})
