// Package storagetest holds the behavior every storage.Driver must share.
// Driver test suites call DriverBehavior from inside a Describe.
package storagetest

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/deepstream/pkg/llm"
	"github.com/papercomputeco/deepstream/pkg/storage"
)

var epoch = time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)

// NewTurn builds a turn whose CreatedAt is offset minutes after a fixed epoch.
func NewTurn(id string, offset int) *storage.Turn {
	return &storage.Turn{
		ID:          id,
		Provider:    "deepseek",
		Model:       "deepseek-reasoner",
		Temperature: 1.3,
		Messages: []llm.Message{
			llm.NewSystemMessage("be brief"),
			llm.NewUserMessage("question " + id),
		},
		Content:   "answer " + id,
		Reasoning: "thinking about " + id,
		CreatedAt: epoch.Add(time.Duration(offset) * time.Minute),
		Duration:  1500 * time.Millisecond,
	}
}

// DriverBehavior registers the shared driver specs. newDriver is called once
// per test and must return an empty store.
func DriverBehavior(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("PutTurn and GetTurn", func() {
		It("round-trips every field", func() {
			want := NewTurn("t-1", 0)
			Expect(driver.PutTurn(ctx, want)).To(Succeed())

			got, err := driver.GetTurn(ctx, "t-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(want.ID))
			Expect(got.Provider).To(Equal(want.Provider))
			Expect(got.Model).To(Equal(want.Model))
			Expect(got.Temperature).To(Equal(want.Temperature))
			Expect(got.Messages).To(Equal(want.Messages))
			Expect(got.Content).To(Equal(want.Content))
			Expect(got.Reasoning).To(Equal(want.Reasoning))
			Expect(got.CreatedAt).To(BeTemporally("==", want.CreatedAt))
			Expect(got.Duration).To(Equal(want.Duration))
		})

		It("keeps multibyte content intact", func() {
			turn := NewTurn("t-utf8", 0)
			turn.Content = "héllo ✓ 世界"
			Expect(driver.PutTurn(ctx, turn)).To(Succeed())

			got, err := driver.GetTurn(ctx, "t-utf8")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Content).To(Equal("héllo ✓ 世界"))
		})

		It("ignores a second put with the same ID", func() {
			first := NewTurn("dup", 0)
			Expect(driver.PutTurn(ctx, first)).To(Succeed())

			second := NewTurn("dup", 5)
			second.Content = "replaced"
			Expect(driver.PutTurn(ctx, second)).To(Succeed())

			got, err := driver.GetTurn(ctx, "dup")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Content).To(Equal(first.Content))
		})

		It("rejects a nil turn", func() {
			Expect(driver.PutTurn(ctx, nil)).To(MatchError(storage.ErrNilTurn))
		})

		It("returns NotFoundError for unknown IDs", func() {
			_, err := driver.GetTurn(ctx, "missing")
			Expect(err).To(MatchError(storage.NotFoundError{ID: "missing"}))
		})
	})

	Describe("ListTurns", func() {
		BeforeEach(func() {
			for i := range 5 {
				Expect(driver.PutTurn(ctx, NewTurn(fmt.Sprintf("t-%d", i), i))).To(Succeed())
			}
		})

		It("returns turns newest first", func() {
			turns, err := driver.ListTurns(ctx, 0)
			Expect(err).NotTo(HaveOccurred())

			ids := make([]string, 0, len(turns))
			for _, t := range turns {
				ids = append(ids, t.ID)
			}
			Expect(ids).To(Equal([]string{"t-4", "t-3", "t-2", "t-1", "t-0"}))
		})

		It("honors the limit", func() {
			turns, err := driver.ListTurns(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(HaveLen(2))
			Expect(turns[0].ID).To(Equal("t-4"))
			Expect(turns[1].ID).To(Equal("t-3"))
		})
	})

	It("returns no turns from an empty store", func() {
		turns, err := driver.ListTurns(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(BeEmpty())
	})

	Describe("system message", func() {
		It("is empty until saved", func() {
			msg, err := driver.LoadSystemMessage(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(BeEmpty())
		})

		It("keeps the last saved value", func() {
			Expect(driver.SaveSystemMessage(ctx, "first")).To(Succeed())
			Expect(driver.SaveSystemMessage(ctx, "second")).To(Succeed())

			msg, err := driver.LoadSystemMessage(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal("second"))
		})
	})
}
