package llm_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/deepstream/pkg/llm"
)

var _ = Describe("ChatRequest", func() {
	It("marshals to the chat-completions wire shape", func() {
		req := llm.ChatRequest{
			Model:       "deepseek-reasoner",
			Messages:    []llm.Message{llm.NewSystemMessage("be brief"), llm.NewUserMessage("hi")},
			Temperature: 0,
			Stream:      true,
		}

		payload, err := json.Marshal(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(payload).To(MatchJSON(`{
			"model": "deepseek-reasoner",
			"messages": [
				{"role": "system", "content": "be brief"},
				{"role": "user", "content": "hi"}
			],
			"temperature": 0,
			"stream": true
		}`))
	})
})

var _ = Describe("Delta", func() {
	It("is empty when nil or without fragments", func() {
		var d *llm.Delta
		Expect(d.IsEmpty()).To(BeTrue())
		Expect((&llm.Delta{}).IsEmpty()).To(BeTrue())
		Expect((&llm.Delta{Reasoning: "x"}).IsEmpty()).To(BeFalse())
	})
})

var _ = Describe("UseCases", func() {
	It("looks up presets case-insensitively", func() {
		uc, ok := llm.LookupUseCase("Coding")
		Expect(ok).To(BeTrue())
		Expect(uc.Temperature).To(Equal(0.0))

		uc, ok = llm.LookupUseCase("creative")
		Expect(ok).To(BeTrue())
		Expect(uc.Temperature).To(Equal(1.5))
	})

	It("reports unknown presets", func() {
		_, ok := llm.LookupUseCase("poetry")
		Expect(ok).To(BeFalse())
	})

	It("returns a copy of the presets", func() {
		ucs := llm.UseCases()
		ucs[0].Temperature = 99
		uc, _ := llm.LookupUseCase("general")
		Expect(uc.Temperature).To(Equal(1.3))
		Expect(llm.UseCaseValues()).To(Equal([]string{"general", "coding", "data", "translation", "creative"}))
	})
})
