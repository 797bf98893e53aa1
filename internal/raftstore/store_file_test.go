package raftstore

import (
	"log/slog"
	"maps"
	"path/filepath"
	"testing"

	"github.com/funkiben/raftstore/internal/kv"
)

func newFileStore(t *testing.T, dir string) *FileStore[kv.State] {
	t.Helper()
	s, err := NewFileStore[kv.State](dir, kv.Codec{}, kv.State{}, slog.Default(), nil)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return s
}

func TestNewFileStore_RequiresLogger(t *testing.T) {
	_, err := NewFileStore[kv.State](t.TempDir(), kv.Codec{}, kv.State{}, nil, nil)
	if err != ErrNilLogger {
		t.Fatalf("error = %v, want ErrNilLogger", err)
	}
}

func TestFileStore_PersistsAndReloads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	s := newFileStore(t, dir)
	s.SetCurrentTerm(7)
	s.SetVotedFor(0x00AB)
	s.AppendEntry(entry(6, "a"))
	s.AppendEntry(entry(7, "b"))
	s.AppendEntry(configEntry(7))
	s.InstallSnapshot(12, 6, kv.State{"k": "v", "k2": "v2"})
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	restored := newFileStore(t, dir)

	if restored.CurrentTerm() != 7 {
		t.Fatalf("CurrentTerm() = %d, want 7", restored.CurrentTerm())
	}
	if id, ok := restored.VotedFor(); !ok || id != 0x00AB {
		t.Fatalf("VotedFor() = (%#x, %v), want (0xAB, true)", id, ok)
	}
	if restored.NumEntries() != 3 {
		t.Fatalf("NumEntries() = %d, want 3", restored.NumEntries())
	}
	if e, ok := restored.Entry(1); !ok || e.Term != 7 || string(e.Data) != "b" {
		t.Fatalf("Entry(1) = (%+v, %v)", e, ok)
	}
	if pos, ok := restored.LastConfigIndex(); !ok || pos != 2 {
		t.Fatalf("LastConfigIndex() = (%d, %v), want (2, true)", pos, ok)
	}
	if meta := restored.SnapshotMeta(); meta.LastIndex != 12 || meta.LastTerm != 6 {
		t.Fatalf("SnapshotMeta() = %+v, want {12 6}", meta)
	}
	want := kv.State{"k": "v", "k2": "v2"}
	if got := restored.SnapshotState(); !maps.Equal(got, want) {
		t.Fatalf("SnapshotState() = %v, want %v", got, want)
	}
}

func TestFileStore_UnsyncedMutationsAreNotDurable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	s := newFileStore(t, dir)
	s.SetCurrentTerm(1)
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	// Simulated crash: mutations after the last Sync never hit disk.
	s.SetCurrentTerm(9)
	s.AppendEntry(entry(9, "lost"))

	restored := newFileStore(t, dir)
	if restored.CurrentTerm() != 1 {
		t.Fatalf("CurrentTerm() = %d, want 1 (pre-crash)", restored.CurrentTerm())
	}
	if restored.NumEntries() != 0 {
		t.Fatalf("NumEntries() = %d, want 0", restored.NumEntries())
	}
}

func TestFileStore_CloseFlushes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	s := newFileStore(t, dir)
	s.AppendEntry(entry(2, "kept"))
	s.SetCurrentTerm(2)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	restored := newFileStore(t, dir)
	if restored.NumEntries() != 1 || restored.CurrentTerm() != 2 {
		t.Fatalf("restored (entries=%d, term=%d), want (1, 2)",
			restored.NumEntries(), restored.CurrentTerm())
	}
}

func TestFileStore_TruncationsPersist(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	s := newFileStore(t, dir)
	for i := 0; i < 6; i++ {
		s.AppendEntry(entry(1, "e"))
	}
	s.TruncatePrefix(2)
	s.TruncateSuffix(3)
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	restored := newFileStore(t, dir)
	if restored.NumEntries() != 3 {
		t.Fatalf("NumEntries() = %d, want 3", restored.NumEntries())
	}
}

func TestFileStore_EmptyDirStartsFresh(t *testing.T) {
	s := newFileStore(t, filepath.Join(t.TempDir(), "fresh"))

	if s.NumEntries() != 0 || s.CurrentTerm() != 0 || s.SnapshotSize() != 0 {
		t.Fatal("fresh store not empty")
	}
	if _, ok := s.VotedFor(); ok {
		t.Fatal("fresh store has a vote")
	}
	if got := s.SnapshotState(); len(got) != 0 {
		t.Fatalf("SnapshotState() = %v, want initial empty state", got)
	}
}
