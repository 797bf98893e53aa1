package raftstore

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/funkiben/raftstore/internal/kv"
)

func TestFileStore_EmitsStorageMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	metrics := NewMockMetrics(ctrl)

	payload := kv.Codec{}.Encode(kv.State{"a": "1"})

	metrics.EXPECT().SetLogEntries(backendFile, 1)
	metrics.EXPECT().ObserveSnapshotBytes(backendFile, gomock.Any()).Times(2)
	metrics.EXPECT().IncSnapshotFinalize(backendFile, "incomplete")
	metrics.EXPECT().IncSnapshotChunkReceived(backendFile, len(payload))
	metrics.EXPECT().IncSnapshotFinalize(backendFile, "installed")
	metrics.EXPECT().ObserveSyncDuration(backendFile, gomock.Any())

	dir := filepath.Join(t.TempDir(), "store")
	s, err := NewFileStore[kv.State](dir, kv.Codec{}, kv.State{}, slog.Default(), metrics)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	s.AppendEntry(entry(1, "a"))
	s.InstallSnapshot(2, 1, kv.State{"installed": "first"})

	if _, ok := s.TryFinalizeSnapshot(5, 2); ok {
		t.Fatal("TryFinalizeSnapshot succeeded with empty chunk buffer")
	}
	s.ReceiveSnapshotChunk(0, payload)
	if _, ok := s.TryFinalizeSnapshot(5, 2); !ok {
		t.Fatal("TryFinalizeSnapshot failed with complete buffer")
	}

	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
}

func TestFileStore_StaleFinalizeMetricLabel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	metrics := NewMockMetrics(ctrl)

	stale := kv.Codec{}.Encode(kv.State{"stale": "yes"})

	metrics.EXPECT().ObserveSnapshotBytes(backendFile, gomock.Any())
	metrics.EXPECT().IncSnapshotChunkReceived(backendFile, len(stale))
	metrics.EXPECT().IncSnapshotFinalize(backendFile, "stale")

	dir := filepath.Join(t.TempDir(), "store")
	s, err := NewFileStore[kv.State](dir, kv.Codec{}, kv.State{}, slog.Default(), metrics)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	s.InstallSnapshot(20, 4, kv.State{"current": "yes"})
	s.ReceiveSnapshotChunk(0, stale)
	if _, ok := s.TryFinalizeSnapshot(10, 3); ok {
		t.Fatal("TryFinalizeSnapshot accepted a snapshot older than the installed one")
	}
}
