package sse_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/deepstream/pkg/sse"
)

// splitAll feeds every chunk through a fresh Splitter and flushes at the end.
func splitAll(chunks ...string) []string {
	s := sse.NewSplitter()
	var lines []string
	for _, c := range chunks {
		lines = append(lines, s.Split([]byte(c))...)
	}
	if tail, ok := s.Flush(); ok {
		lines = append(lines, tail)
	}
	return lines
}

var _ = Describe("Splitter", func() {
	It("splits a single chunk into lines", func() {
		Expect(splitAll("data: a\n\ndata: b\n")).To(Equal([]string{"data: a", "", "data: b"}))
	})

	It("carries a partial line into the next chunk", func() {
		s := sse.NewSplitter()

		Expect(s.Split([]byte("data: {\"con"))).To(BeEmpty())
		Expect(s.Split([]byte("tent\":1}\n"))).To(Equal([]string{`data: {"content":1}`}))

		_, ok := s.Flush()
		Expect(ok).To(BeFalse())
	})

	It("handles a newline arriving as its own chunk", func() {
		Expect(splitAll("data: x", "\n", "data: y", "\n")).To(Equal([]string{"data: x", "data: y"}))
	})

	It("strips CR from CRLF framing", func() {
		Expect(splitAll("data: a\r\n\r\ndata: b\r", "\n")).To(Equal([]string{"data: a", "", "data: b"}))
	})

	It("returns the unterminated tail on flush", func() {
		s := sse.NewSplitter()
		Expect(s.Split([]byte("data: a\ndata: tail"))).To(Equal([]string{"data: a"}))

		tail, ok := s.Flush()
		Expect(ok).To(BeTrue())
		Expect(tail).To(Equal("data: tail"))

		_, ok = s.Flush()
		Expect(ok).To(BeFalse())
	})

	It("reports nothing to flush when every line was terminated", func() {
		s := sse.NewSplitter()
		s.Split([]byte("data: a\n"))
		_, ok := s.Flush()
		Expect(ok).To(BeFalse())
	})

	It("reassembles a multi-byte rune split across chunks", func() {
		word := "héllo ✓"
		raw := []byte("data: " + word + "\n")
		cut := strings.Index(string(raw), "✓") + 1

		Expect(splitAll(string(raw[:cut]), string(raw[cut:]))).To(Equal([]string{"data: " + word}))
	})

	It("replaces invalid UTF-8 instead of failing", func() {
		lines := splitAll("data: ok\xff\xfe\n")
		Expect(lines).To(HaveLen(1))
		Expect(lines[0]).To(Equal("data: ok�"))
	})

	It("does not retain the caller's buffer", func() {
		s := sse.NewSplitter()
		buf := []byte("data: partial")
		s.Split(buf)
		copy(buf, "XXXXXXXXXXXXX")

		tail, _ := s.Flush()
		Expect(tail).To(Equal("data: partial"))
	})

	It("ignores empty chunks", func() {
		s := sse.NewSplitter()
		Expect(s.Split(nil)).To(BeNil())
		_, ok := s.Flush()
		Expect(ok).To(BeFalse())
	})

	It("drops carried bytes on reset", func() {
		s := sse.NewSplitter()
		s.Split([]byte("data: dangling"))
		s.Reset()
		_, ok := s.Flush()
		Expect(ok).To(BeFalse())
	})

	It("produces the same lines for every two-way split of a stream", func() {
		stream := "data: {\"a\":\"é\"}\r\n\r\n: comment\ndata: [DONE]\n"
		want := splitAll(stream)
		for i := 0; i <= len(stream); i++ {
			Expect(splitAll(stream[:i], stream[i:])).To(Equal(want), "split at %d", i)
		}
	})
})
