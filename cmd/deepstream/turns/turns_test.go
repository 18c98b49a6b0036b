package turnscmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	turnscmder "github.com/papercomputeco/deepstream/cmd/deepstream/turns"
	"github.com/papercomputeco/deepstream/pkg/storage"
	"github.com/papercomputeco/deepstream/pkg/storage/sqlite"
	"github.com/papercomputeco/deepstream/pkg/storage/storagetest"
)

var _ = Describe("NewTurnsCmd", func() {
	var dbPath string

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "deepstream.db")

		driver, err := sqlite.NewDriver(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		for i, id := range []string{"turn-a", "turn-b", "turn-c"} {
			Expect(driver.PutTurn(context.Background(), storagetest.NewTurn(id, i))).To(Succeed())
		}
		Expect(driver.Close()).To(Succeed())
	})

	run := func(args ...string) (string, error) {
		cmd := turnscmder.NewTurnsCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	It("lists turns newest first", func() {
		out, err := run("--sqlite", dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("3 turns"))
		Expect(out).To(ContainSubstring("answer turn-c"))
	})

	It("honors --limit in JSON output", func() {
		out, err := run("--sqlite", dbPath, "--limit", "2", "--json")
		Expect(err).NotTo(HaveOccurred())

		var turns []storage.Turn
		Expect(json.Unmarshal([]byte(out), &turns)).To(Succeed())
		Expect(turns).To(HaveLen(2))
		Expect(turns[0].ID).To(Equal("turn-c"))
		Expect(turns[1].ID).To(Equal("turn-b"))
	})

	It("prints a single turn with its reasoning", func() {
		out, err := run("--sqlite", dbPath, "turn-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("question turn-a"))
		Expect(out).To(ContainSubstring("thinking about turn-a"))
		Expect(out).To(ContainSubstring("answer turn-a"))
	})

	It("returns NotFoundError for an unknown ID", func() {
		_, err := run("--sqlite", dbPath, "missing")

		var notFound storage.NotFoundError
		Expect(errors.As(err, &notFound)).To(BeTrue())
		Expect(notFound.ID).To(Equal("missing"))
	})

	It("rejects a negative limit", func() {
		_, err := run("--sqlite", dbPath, "--limit", "-1")
		Expect(err).To(MatchError(ContainSubstring("must not be negative")))
	})
})
