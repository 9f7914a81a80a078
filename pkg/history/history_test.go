package history_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docstackco/lectern/pkg/history"
	"github.com/docstackco/lectern/pkg/history/inmemory"
	"github.com/docstackco/lectern/pkg/history/sqlite"
)

func TestHistory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "History Suite")
}

// Both implementations run through the same behavioral specs.
var _ = Describe("Store implementations", func() {
	type factory struct {
		name string
		make func() history.Store
	}

	factories := []factory{
		{
			name: "sqlite",
			make: func() history.Store {
				store, err := sqlite.NewStore(":memory:")
				Expect(err).NotTo(HaveOccurred())
				return store
			},
		},
		{
			name: "inmemory",
			make: func() history.Store {
				return inmemory.NewStore()
			},
		},
	}

	for _, f := range factories {
		f := f

		Describe(f.name, func() {
			var store history.Store

			BeforeEach(func() {
				store = f.make()
			})

			AfterEach(func() {
				Expect(store.Close()).To(Succeed())
			})

			record := func(id, filename string, at time.Time) history.Record {
				return history.Record{
					ID:         id,
					Filename:   filename,
					Size:       42,
					Chunks:     3,
					UploadedAt: at,
				}
			}

			It("should save and retrieve a record", func() {
				now := time.Now().UTC().Truncate(time.Millisecond)
				Expect(store.Save(context.Background(), record("id-1", "handbook.pdf", now))).To(Succeed())

				rec, err := store.FindByID(context.Background(), "id-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Filename).To(Equal("handbook.pdf"))
				Expect(rec.Size).To(Equal(int64(42)))
				Expect(rec.Chunks).To(Equal(3))
				Expect(rec.UploadedAt).To(BeTemporally("==", now))
			})

			It("should return ErrNotFound for an unknown ID", func() {
				_, err := store.FindByID(context.Background(), "missing")
				Expect(err).To(MatchError(history.ErrNotFound))
			})

			It("should list records newest first", func() {
				base := time.Now().UTC()
				Expect(store.Save(context.Background(), record("id-1", "old.pdf", base.Add(-2*time.Hour)))).To(Succeed())
				Expect(store.Save(context.Background(), record("id-2", "new.pdf", base))).To(Succeed())
				Expect(store.Save(context.Background(), record("id-3", "mid.pdf", base.Add(-time.Hour)))).To(Succeed())

				records, err := store.FindAll(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(3))
				Expect(records[0].Filename).To(Equal("new.pdf"))
				Expect(records[1].Filename).To(Equal("mid.pdf"))
				Expect(records[2].Filename).To(Equal("old.pdf"))
			})

			It("should overwrite a record saved with the same ID", func() {
				now := time.Now().UTC()
				Expect(store.Save(context.Background(), record("id-1", "first.pdf", now))).To(Succeed())
				Expect(store.Save(context.Background(), record("id-1", "second.pdf", now))).To(Succeed())

				records, err := store.FindAll(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))
				Expect(records[0].Filename).To(Equal("second.pdf"))
			})

			It("should report filename existence", func() {
				Expect(store.Save(context.Background(), record("id-1", "handbook.pdf", time.Now().UTC()))).To(Succeed())

				exists, err := store.Exists(context.Background(), "handbook.pdf")
				Expect(err).NotTo(HaveOccurred())
				Expect(exists).To(BeTrue())

				exists, err = store.Exists(context.Background(), "other.pdf")
				Expect(err).NotTo(HaveOccurred())
				Expect(exists).To(BeFalse())
			})

			It("should delete a record by ID", func() {
				Expect(store.Save(context.Background(), record("id-1", "handbook.pdf", time.Now().UTC()))).To(Succeed())
				Expect(store.Delete(context.Background(), "id-1")).To(Succeed())

				_, err := store.FindByID(context.Background(), "id-1")
				Expect(err).To(MatchError(history.ErrNotFound))
			})

			It("should return ErrNotFound when deleting an unknown ID", func() {
				Expect(store.Delete(context.Background(), "missing")).To(MatchError(history.ErrNotFound))
			})
		})
	}
})

var _ = Describe("sqlite.NewStore", func() {
	It("should require a database path", func() {
		_, err := sqlite.NewStore("")
		Expect(err).To(HaveOccurred())
	})
})
