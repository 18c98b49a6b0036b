package deepstreamcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	deepstreamcmder "github.com/papercomputeco/deepstream/cmd/deepstream"
)

var _ = Describe("NewDeepstreamCmd", func() {
	It("registers every subcommand", func() {
		cmd := deepstreamcmder.NewDeepstreamCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("chat", "serve", "turns", "config", "auth", "version"))
	})

	It("has the global persistent flags", func() {
		cmd := deepstreamcmder.NewDeepstreamCmd()

		debug := cmd.PersistentFlags().Lookup("debug")
		Expect(debug).NotTo(BeNil())
		Expect(debug.Shorthand).To(Equal("d"))

		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
