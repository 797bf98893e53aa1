package raftstore

import "time"

// Metrics captures the storage-layer metric sinks emitted by the durable
// store implementations.
type Metrics interface {
	IncStorageError(backend, op string)
	ObserveSyncDuration(backend string, d time.Duration)
	ObserveSnapshotBytes(backend string, n int)
	IncSnapshotChunkReceived(backend string, bytes int)
	IncSnapshotFinalize(backend, result string)
	SetLogEntries(backend string, n int)
}

type noopMetrics struct{}

func (noopMetrics) IncStorageError(string, string)            {}
func (noopMetrics) ObserveSyncDuration(string, time.Duration) {}
func (noopMetrics) ObserveSnapshotBytes(string, int)          {}
func (noopMetrics) IncSnapshotChunkReceived(string, int)      {}
func (noopMetrics) IncSnapshotFinalize(string, string)        {}
func (noopMetrics) SetLogEntries(string, int)                 {}
