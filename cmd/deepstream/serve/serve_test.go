package servecmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/deepstream/pkg/config"
	"github.com/papercomputeco/deepstream/pkg/eventstream/kafka"
	"github.com/papercomputeco/deepstream/pkg/eventstream/nop"
	"github.com/papercomputeco/deepstream/pkg/logger"
	"github.com/papercomputeco/deepstream/pkg/storage/inmemory"
	"github.com/papercomputeco/deepstream/pkg/storage/sqlite"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("registers the server flags with config defaults", func() {
		cmd := NewServeCmd()

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.Shorthand).To(Equal("l"))
		Expect(listen.DefValue).To(Equal(":8081"))

		for _, name := range []string{"sqlite", "postgres", "system-file", "log-file", "event-stream", "kafka-brokers", "kafka-topic", "provider", "base-url"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})
})

var _ = Describe("serveCommander", func() {
	var (
		cmder    *serveCommander
		upstream *httptest.Server
	)

	BeforeEach(func() {
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"reasoning_content\":\"Hmm\"}}]}\n\n")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
			fmt.Fprint(w, "data: [DONE]\n\n")
		}))
		DeferCleanup(upstream.Close)

		cfg := config.NewDefaultConfig()
		cfg.Provider.BaseURL = upstream.URL

		cmder = &serveCommander{
			cfg:       cfg,
			configDir: GinkgoT().TempDir(),
			logger:    logger.Nop(),
		}
		GinkgoT().Setenv("DEEPSEEK_API_KEY", "sk-test")
	})

	Describe("newStorageDriver", func() {
		It("defaults to in-memory storage", func() {
			driver, err := cmder.newStorageDriver(context.Background())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(driver.Close)
			Expect(driver).To(BeAssignableToTypeOf(&inmemory.Driver{}))
		})

		It("uses SQLite when a path is configured", func() {
			cmder.cfg.Storage.SQLitePath = filepath.Join(GinkgoT().TempDir(), "deepstream.db")

			driver, err := cmder.newStorageDriver(context.Background())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(driver.Close)
			Expect(driver).To(BeAssignableToTypeOf(&sqlite.Driver{}))
		})
	})

	Describe("newPublisher", func() {
		It("defaults to the no-op publisher", func() {
			pub, err := cmder.newPublisher()
			Expect(err).NotTo(HaveOccurred())
			Expect(pub).To(BeAssignableToTypeOf(&nop.Publisher{}))
		})

		It("builds a kafka publisher from the broker list", func() {
			cmder.cfg.EventStream.Provider = config.EventStreamKafka
			cmder.cfg.EventStream.Brokers = "localhost:9092, localhost:9093"

			pub, err := cmder.newPublisher()
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(pub.Close)
			Expect(pub).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		})

		It("requires brokers for kafka", func() {
			cmder.cfg.EventStream.Provider = config.EventStreamKafka

			_, err := cmder.newPublisher()
			Expect(err).To(MatchError(ContainSubstring("broker")))
		})

		It("rejects an unknown provider", func() {
			cmder.cfg.EventStream.Provider = "rabbit"

			_, err := cmder.newPublisher()
			Expect(err).To(MatchError(ContainSubstring("unknown event stream provider")))
		})
	})

	Describe("build", func() {
		It("wires a server that streams and records turns", func() {
			cmder.cfg.Storage.SQLitePath = filepath.Join(GinkgoT().TempDir(), "deepstream.db")

			svc, err := cmder.build(context.Background())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { svc.close(cmder.logger) })

			req := httptest.NewRequest(http.MethodPost, "/v1/chat",
				strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := svc.server.App().Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("event: complete"))

			Eventually(func() (int, error) {
				turns, err := svc.driver.ListTurns(context.Background(), 0)
				return len(turns), err
			}).Should(Equal(1))
		})

		It("loads the system message file and persists it", func() {
			file := filepath.Join(GinkgoT().TempDir(), "prompt.md")
			Expect(os.WriteFile(file, []byte("  be brief\n"), 0o644)).To(Succeed())
			cmder.cfg.SystemMessage.File = file

			svc, err := cmder.build(context.Background())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { svc.close(cmder.logger) })

			Expect(svc.sysmsg.Get()).To(Equal("be brief"))
			Eventually(func() (string, error) {
				return svc.driver.LoadSystemMessage(context.Background())
			}).Should(Equal("be brief"))
		})

		It("fails on an unknown provider", func() {
			cmder.cfg.Provider.Name = "nope"

			svc, err := cmder.build(context.Background())
			Expect(err).To(MatchError(ContainSubstring("unknown provider type")))
			Expect(svc).To(BeNil())
		})

		It("fails when the system message file is missing", func() {
			cmder.cfg.SystemMessage.File = filepath.Join(GinkgoT().TempDir(), "missing.md")

			_, err := cmder.build(context.Background())
			Expect(err).To(HaveOccurred())
		})
	})
})
