// Package metrics provides the Prometheus collectors for deepstream chat
// streams.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// StreamBuckets are histogram buckets for whole-stream durations, from 100ms
// to 5 minutes. Reasoning models routinely think for a minute or more.
var StreamBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// Stream outcomes used as the "outcome" label on StreamsTotal.
const (
	OutcomeCompleted = "completed"
	OutcomeCanceled  = "canceled"
	OutcomeTransport = "transport_error"
	OutcomeSink      = "sink_error"
)

// Delta kinds used as the "kind" label on DeltasTotal.
const (
	KindContent   = "content"
	KindReasoning = "reasoning"
)

var (
	// StreamsTotal counts finished streams by provider and outcome.
	StreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepstream_streams_total",
			Help: "Chat streams by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// DeltasTotal counts delta events forwarded to sinks.
	DeltasTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepstream_stream_deltas_total",
			Help: "Delta events emitted",
		},
		[]string{"provider", "kind"},
	)

	// DecodeErrorsTotal counts data payloads skipped as malformed.
	DecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepstream_stream_decode_errors_total",
			Help: "Malformed stream payloads skipped",
		},
		[]string{"provider"},
	)

	// StreamDuration records the wall time of a stream, first read to end.
	StreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deepstream_stream_duration_seconds",
			Help:    "Stream duration",
			Buckets: StreamBuckets,
		},
		[]string{"provider"},
	)

	// StreamsActive tracks streams currently being decoded.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "deepstream_streams_active",
			Help: "Active chat streams",
		},
	)

	// TurnsDroppedTotal counts completed turns dropped because the
	// persistence queue was full.
	TurnsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deepstream_turns_dropped_total",
			Help: "Turns dropped by a full persistence queue",
		},
	)
)

func init() {
	prometheus.MustRegister(
		StreamsTotal,
		DeltasTotal,
		DecodeErrorsTotal,
		StreamDuration,
		StreamsActive,
		TurnsDroppedTotal,
	)
}
