package events_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"log/slog"

	"github.com/frahmantamala/expense-approval/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

func testEvent(eventType string) events.BaseEvent {
	return events.BaseEvent{
		ID:        "evt-1",
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      map[string]interface{}{"expense_id": int64(1)},
	}
}

var _ = Describe("Bus", func() {
	var bus *events.Bus

	BeforeEach(func() {
		bus = events.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	Describe("Publish", func() {
		It("fans out to every subscriber", func() {
			delivered := make(chan string, 2)
			bus.Subscribe(events.ExpenseSubmittedEvent, func(ctx context.Context, e events.Event) error {
				delivered <- "first"
				return nil
			})
			bus.Subscribe(events.ExpenseSubmittedEvent, func(ctx context.Context, e events.Event) error {
				delivered <- "second"
				return nil
			})

			Expect(bus.Publish(context.Background(), testEvent(events.ExpenseSubmittedEvent))).To(Succeed())
			Eventually(delivered).Should(HaveLen(2))
		})

		It("keeps handlers running after the publisher's context is cancelled", func() {
			handlerErr := make(chan error, 1)
			bus.Subscribe(events.ExpenseSubmittedEvent, func(ctx context.Context, e events.Event) error {
				handlerErr <- ctx.Err()
				return nil
			})

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Expect(bus.Publish(ctx, testEvent(events.ExpenseSubmittedEvent))).To(Succeed())
			Eventually(handlerErr).Should(Receive(BeNil()))
		})

		It("is a no-op when nothing is subscribed", func() {
			Expect(bus.Publish(context.Background(), testEvent("expense.unknown"))).To(Succeed())
		})
	})

	Describe("PublishSync", func() {
		It("runs handlers inline and stops at the first failure", func() {
			var order []string
			bus.Subscribe(events.ExpenseStatusChangedEvent, func(ctx context.Context, e events.Event) error {
				order = append(order, "first")
				return errors.New("handler down")
			})
			bus.Subscribe(events.ExpenseStatusChangedEvent, func(ctx context.Context, e events.Event) error {
				order = append(order, "second")
				return nil
			})

			err := bus.PublishSync(context.Background(), testEvent(events.ExpenseStatusChangedEvent))
			Expect(err).To(HaveOccurred())
			Expect(order).To(Equal([]string{"first"}))
		})
	})
})
