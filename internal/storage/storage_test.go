package storage_test

import (
	"io"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-approval/internal/storage"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Suite")
}

var _ = Describe("LocalStore", func() {
	var store *storage.LocalStore

	BeforeEach(func() {
		var err error
		store, err = storage.NewLocalStore(GinkgoT().TempDir(), 1024)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Put and Get", func() {
		It("round-trips content under a generated ref", func() {
			ref, err := store.Put("receipt.pdf", strings.NewReader("pdf bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(ref).To(HaveSuffix(".pdf"))

			rc, err := store.Get(ref)
			Expect(err).NotTo(HaveOccurred())
			defer rc.Close()

			content, err := io.ReadAll(rc)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("pdf bytes"))
		})

		It("generates distinct refs for identical file names", func() {
			first, err := store.Put("receipt.pdf", strings.NewReader("a"))
			Expect(err).NotTo(HaveOccurred())
			second, err := store.Put("receipt.pdf", strings.NewReader("b"))
			Expect(err).NotTo(HaveOccurred())
			Expect(first).NotTo(Equal(second))
		})

		It("rejects content over the size limit", func() {
			_, err := store.Put("big.bin", strings.NewReader(strings.Repeat("x", 1025)))
			Expect(err).To(MatchError(storage.ErrTooLarge))
		})

		It("accepts content exactly at the size limit", func() {
			ref, err := store.Put("fits.bin", strings.NewReader(strings.Repeat("x", 1024)))
			Expect(err).NotTo(HaveOccurred())

			rc, err := store.Get(ref)
			Expect(err).NotTo(HaveOccurred())
			defer rc.Close()

			content, err := io.ReadAll(rc)
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(HaveLen(1024))
		})
	})

	Describe("Get", func() {
		It("returns ErrNotFound for unknown refs", func() {
			_, err := store.Get("deadbeef.pdf")
			Expect(err).To(MatchError(storage.ErrNotFound))
		})

		It("refuses refs that try to escape the storage directory", func() {
			for _, ref := range []string{"../secrets", "a/b", `a\b`, ""} {
				_, err := store.Get(ref)
				Expect(err).To(MatchError(storage.ErrNotFound), "ref %q", ref)
			}
		})
	})

	Describe("Delete", func() {
		It("removes a stored blob", func() {
			ref, err := store.Put("receipt.pdf", strings.NewReader("pdf bytes"))
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Delete(ref)).To(Succeed())
			_, err = store.Get(ref)
			Expect(err).To(MatchError(storage.ErrNotFound))
		})

		It("returns ErrNotFound for unknown refs", func() {
			Expect(store.Delete("deadbeef.pdf")).To(MatchError(storage.ErrNotFound))
		})
	})
})
