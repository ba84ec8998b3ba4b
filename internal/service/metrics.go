package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts upload outcomes.
type Metrics struct {
	uploads *prometheus.CounterVec
}

// NewMetrics registers the service collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_uploads_total",
				Help: "Total number of document uploads by result.",
			},
			[]string{"result"},
		),
	}
	if err := reg.Register(m.uploads); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observeUpload(err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(uploadResult(err)).Inc()
}

func uploadResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingFile):
		return "missing_file"
	case errors.Is(err, ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, ErrSizeExceeded):
		return "size_exceeded"
	case errors.Is(err, ErrMetadataInsertFailed):
		return "metadata_insert_failed"
	default:
		return "error"
	}
}
