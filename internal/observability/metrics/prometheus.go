//revive:disable:var-naming
//revive:disable:exported
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exposes storage metrics and can be injected into the durable
// store backends. It implements internal/raftstore.Metrics through method set
// compatibility, without importing that package.
type Prometheus struct {
	storageErrorTotal          *prometheus.CounterVec
	syncDuration               *prometheus.HistogramVec
	snapshotBytes              *prometheus.HistogramVec
	snapshotChunkReceivedTotal *prometheus.CounterVec
	snapshotChunkBytesTotal    *prometheus.CounterVec
	snapshotFinalizeTotal      *prometheus.CounterVec
	logEntries                 *prometheus.GaugeVec
}

func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Prometheus{
		storageErrorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "raftstore",
				Subsystem: "storage",
				Name:      "error_total",
				Help:      "Storage persistence errors by backend and operation.",
			},
			[]string{"backend", "op"},
		),
		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "raftstore",
				Subsystem: "storage",
				Name:      "sync_duration_seconds",
				Help:      "Duration of Sync calls flushing dirty state to the backend.",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1},
			},
			[]string{"backend"},
		),
		snapshotBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "raftstore",
				Subsystem: "snapshot",
				Name:      "bytes",
				Help:      "Installed snapshot payload size in bytes.",
				Buckets:   []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216},
			},
			[]string{"backend"},
		),
		snapshotChunkReceivedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "raftstore",
				Subsystem: "snapshot",
				Name:      "chunk_received_total",
				Help:      "Number of inbound snapshot transfer chunks buffered.",
			},
			[]string{"backend"},
		),
		snapshotChunkBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "raftstore",
				Subsystem: "snapshot",
				Name:      "chunk_bytes_total",
				Help:      "Total inbound snapshot transfer bytes buffered.",
			},
			[]string{"backend"},
		),
		snapshotFinalizeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "raftstore",
				Subsystem: "snapshot",
				Name:      "finalize_total",
				Help:      "Snapshot finalize attempts by result (installed, incomplete).",
			},
			[]string{"backend", "result"},
		),
		logEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "raftstore",
				Subsystem: "log",
				Name:      "entries",
				Help:      "Current number of entries retained in the log.",
			},
			[]string{"backend"},
		),
	}

	if err := m.register(reg); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Prometheus) register(reg prometheus.Registerer) error {
	if err := registerOrReuseCounterVec(reg, &m.storageErrorTotal); err != nil {
		return fmt.Errorf("register storage error counter: %w", err)
	}
	if err := registerOrReuseHistogramVec(reg, &m.syncDuration); err != nil {
		return fmt.Errorf("register sync duration histogram: %w", err)
	}
	if err := registerOrReuseHistogramVec(reg, &m.snapshotBytes); err != nil {
		return fmt.Errorf("register snapshot bytes histogram: %w", err)
	}
	if err := registerOrReuseCounterVec(reg, &m.snapshotChunkReceivedTotal); err != nil {
		return fmt.Errorf("register snapshot chunk counter: %w", err)
	}
	if err := registerOrReuseCounterVec(reg, &m.snapshotChunkBytesTotal); err != nil {
		return fmt.Errorf("register snapshot chunk bytes counter: %w", err)
	}
	if err := registerOrReuseCounterVec(reg, &m.snapshotFinalizeTotal); err != nil {
		return fmt.Errorf("register snapshot finalize counter: %w", err)
	}
	if err := registerOrReuseGaugeVec(reg, &m.logEntries); err != nil {
		return fmt.Errorf("register log entries gauge: %w", err)
	}
	return nil
}

func registerOrReuseHistogramVec(reg prometheus.Registerer, c **prometheus.HistogramVec) error {
	if err := reg.Register(*c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return err
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return fmt.Errorf("collector type mismatch for %T", *c)
		}
		*c = existing
	}
	return nil
}

func registerOrReuseCounterVec(reg prometheus.Registerer, c **prometheus.CounterVec) error {
	if err := reg.Register(*c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return fmt.Errorf("collector type mismatch for %T", *c)
		}
		*c = existing
	}
	return nil
}

func registerOrReuseGaugeVec(reg prometheus.Registerer, c **prometheus.GaugeVec) error {
	if err := reg.Register(*c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return err
		}
		existing, ok := already.ExistingCollector.(*prometheus.GaugeVec)
		if !ok {
			return fmt.Errorf("collector type mismatch for %T", *c)
		}
		*c = existing
	}
	return nil
}

func (m *Prometheus) IncStorageError(backend, op string) {
	m.storageErrorTotal.WithLabelValues(backend, op).Inc()
}

func (m *Prometheus) ObserveSyncDuration(backend string, d time.Duration) {
	m.syncDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *Prometheus) ObserveSnapshotBytes(backend string, n int) {
	if n < 0 {
		n = 0
	}
	m.snapshotBytes.WithLabelValues(backend).Observe(float64(n))
}

func (m *Prometheus) IncSnapshotChunkReceived(backend string, bytes int) {
	m.snapshotChunkReceivedTotal.WithLabelValues(backend).Inc()
	if bytes > 0 {
		m.snapshotChunkBytesTotal.WithLabelValues(backend).Add(float64(bytes))
	}
}

func (m *Prometheus) IncSnapshotFinalize(backend, result string) {
	m.snapshotFinalizeTotal.WithLabelValues(backend, result).Inc()
}

func (m *Prometheus) SetLogEntries(backend string, n int) {
	if n < 0 {
		n = 0
	}
	m.logEntries.WithLabelValues(backend).Set(float64(n))
}
