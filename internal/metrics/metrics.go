// Package metrics counts session operations and writes them to a
// node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"bucketctl/internal/domain"
)

// Recorder implements session.Observer on its own registry
type Recorder struct {
	registry *prometheus.Registry

	operationsTotal          *prometheus.CounterVec
	operationDurationSeconds *prometheus.HistogramVec
	transferBytesTotal       *prometheus.CounterVec
}

// NewRecorder creates a recorder with a fresh registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bucketctl_operations_total",
				Help: "Total number of bucket operations by outcome.",
			},
			[]string{"op", "result"},
		),
		operationDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bucketctl_operation_duration_seconds",
				Help:    "Duration of bucket operations.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"op"},
		),
		transferBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bucketctl_transfer_bytes_total",
				Help: "Bytes sent to or received from the bucket.",
			},
			[]string{"op"},
		),
	}

	r.registry.MustRegister(r.operationsTotal)
	r.registry.MustRegister(r.operationDurationSeconds)
	r.registry.MustRegister(r.transferBytesTotal)
	r.registry.MustRegister(collectors.NewBuildInfoCollector())

	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// OperationFinished records one operation outcome
func (r *Recorder) OperationFinished(op string, err error, elapsed time.Duration) {
	r.operationsTotal.WithLabelValues(op, Result(err)).Inc()
	r.operationDurationSeconds.WithLabelValues(op).Observe(elapsed.Seconds())
}

// BytesTransferred adds n bytes to the op counter
func (r *Recorder) BytesTransferred(op, name string, n int64) {
	r.transferBytesTotal.WithLabelValues(op).Add(float64(n))
}

// WriteTextfile atomically writes every metric to path in text format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics textfile: %w", err)
	}
	return nil
}

// Result maps an error to the result label
func Result(err error) string {
	if err == nil {
		return "success"
	}
	switch domain.KindOf(err) {
	case domain.KindConfig:
		return "config_error"
	case domain.KindConnection:
		return "connection_error"
	case domain.KindAlreadyExists:
		return "already_exists"
	case domain.KindLocalIO:
		return "local_io_error"
	default:
		return "remote_error"
	}
}
