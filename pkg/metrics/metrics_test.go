package metrics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/papercomputeco/deepstream/pkg/metrics"
)

var _ = Describe("Metrics", func() {
	It("registers every collector in the default registry", func() {
		metrics.StreamsTotal.WithLabelValues("test", metrics.OutcomeCompleted).Inc()
		metrics.DeltasTotal.WithLabelValues("test", metrics.KindContent).Inc()
		metrics.DecodeErrorsTotal.WithLabelValues("test").Inc()
		metrics.StreamDuration.WithLabelValues("test").Observe(0.2)
		metrics.TurnsDroppedTotal.Add(0)

		families, err := prometheus.DefaultGatherer.Gather()
		Expect(err).NotTo(HaveOccurred())

		names := make([]string, 0, len(families))
		for _, mf := range families {
			names = append(names, mf.GetName())
		}
		Expect(names).To(ContainElements(
			"deepstream_streams_total",
			"deepstream_stream_deltas_total",
			"deepstream_stream_decode_errors_total",
			"deepstream_stream_duration_seconds",
			"deepstream_streams_active",
			"deepstream_turns_dropped_total",
		))
	})

	It("counts per label set", func() {
		c := metrics.DeltasTotal.WithLabelValues("counting", metrics.KindReasoning)
		c.Add(3)

		m := &dto.Metric{}
		Expect(c.Write(m)).To(Succeed())
		Expect(m.GetCounter().GetValue()).To(BeNumerically("==", 3))
	})
})
