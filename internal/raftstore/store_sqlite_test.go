package raftstore

import (
	"log/slog"
	"maps"
	"path/filepath"
	"testing"

	"github.com/funkiben/raftstore/internal/kv"
)

func newSQLiteStore(t *testing.T, path string) *SQLiteStore[kv.State] {
	t.Helper()
	s, err := NewSQLiteStore[kv.State](path, kv.Codec{}, kv.State{}, slog.Default(), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	return s
}

func TestSQLiteStore_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s := newSQLiteStore(t, path)
	s.SetCurrentTerm(4)
	s.SetVotedFor(0x0101)
	s.AppendEntry(entry(3, "a"))
	s.AppendEntry(entry(4, "b"))
	s.InstallSnapshot(9, 3, kv.State{"x": "1"})
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	restored := newSQLiteStore(t, path)
	defer func() { _ = restored.Close() }()

	if restored.CurrentTerm() != 4 {
		t.Fatalf("CurrentTerm() = %d, want 4", restored.CurrentTerm())
	}
	if id, ok := restored.VotedFor(); !ok || id != 0x0101 {
		t.Fatalf("VotedFor() = (%#x, %v), want (0x101, true)", id, ok)
	}
	if restored.NumEntries() != 2 {
		t.Fatalf("NumEntries() = %d, want 2", restored.NumEntries())
	}
	if e, ok := restored.Entry(0); !ok || e.Term != 3 || string(e.Data) != "a" {
		t.Fatalf("Entry(0) = (%+v, %v)", e, ok)
	}
	if meta := restored.SnapshotMeta(); meta.LastIndex != 9 || meta.LastTerm != 3 {
		t.Fatalf("SnapshotMeta() = %+v, want {9 3}", meta)
	}
	want := kv.State{"x": "1"}
	if got := restored.SnapshotState(); !maps.Equal(got, want) {
		t.Fatalf("SnapshotState() = %v, want %v", got, want)
	}
}

func TestSQLiteStore_ClearedVotePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s := newSQLiteStore(t, path)
	s.SetCurrentTerm(2)
	s.SetVotedFor(0x7)
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	s.ClearVotedFor()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	restored := newSQLiteStore(t, path)
	defer func() { _ = restored.Close() }()
	if _, ok := restored.VotedFor(); ok {
		t.Fatal("cleared vote came back after reload")
	}
	if restored.CurrentTerm() != 2 {
		t.Fatalf("CurrentTerm() = %d, want 2", restored.CurrentTerm())
	}
}

func TestSQLiteStore_TruncationsPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s := newSQLiteStore(t, path)
	for i := 0; i < 8; i++ {
		s.AppendEntry(entry(1, "e"))
	}
	s.TruncatePrefix(3)
	s.TruncateSuffix(2)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	restored := newSQLiteStore(t, path)
	defer func() { _ = restored.Close() }()
	if restored.NumEntries() != 2 {
		t.Fatalf("NumEntries() = %d, want 2", restored.NumEntries())
	}
}

func TestSQLiteStore_SyncWithoutChangesIsCheap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s := newSQLiteStore(t, path)
	defer func() { _ = s.Close() }()

	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() on clean store error = %v", err)
	}
}
