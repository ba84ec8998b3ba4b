package delivery

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeCompleted     = "completed"
	outcomeAborted       = "aborted"
	outcomeUnsatisfiable = "unsatisfiable"
)

// Metrics counts delivered streams and bytes.
type Metrics struct {
	streams *prometheus.CounterVec
	bytes   prometheus.Counter
}

// NewMetrics registers the delivery collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		streams: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_streams_total",
				Help: "Total number of document content responses by outcome.",
			},
			[]string{"outcome"},
		),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "document_stream_bytes_total",
			Help: "Total number of document bytes handed to clients.",
		}),
	}
	for _, c := range []prometheus.Collector{m.streams, m.bytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(outcome string, sent int64) {
	if m == nil {
		return
	}
	m.streams.WithLabelValues(outcome).Inc()
	if sent > 0 {
		m.bytes.Add(float64(sent))
	}
}
