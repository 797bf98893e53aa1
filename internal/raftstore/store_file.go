package raftstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const backendFile = "file"

// FileStore is a file-backed Store rooted at a directory. Mutations are
// applied to the in-memory image and tracked as dirty; Sync rewrites every
// dirty section atomically (temp file, fsync, rename, directory fsync), so
// a crash between mutations and Sync loses at most the unacknowledged tail.
type FileStore[S any] struct {
	dir     string
	logger  *slog.Logger
	metrics Metrics

	log  Log
	snap *SnapshotManager[S]
	hard HardState

	dirtyLog  bool
	dirtyHard bool
	dirtySnap bool
}

// storedSnapshot is the on-disk form of the installed snapshot.
// Payload is the codec encoding, kept opaque.
type storedSnapshot struct {
	SnapshotMeta
	Payload []byte `json:"payload"`
}

// storedLog is the on-disk form of the entry sequence.
type storedLog struct {
	Entries []LogEntry `json:"entries"`
}

// NewFileStore opens (or initializes) a file-backed store rooted at dir,
// restoring any previously synced state.
func NewFileStore[S any](dir string, codec Codec[S], initial S, logger *slog.Logger, metrics Metrics) (*FileStore[S], error) {
	if codec == nil {
		return nil, ErrNilCodec
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	s := &FileStore[S]{
		dir:     dir,
		logger:  logger,
		metrics: metrics,
		snap:    NewSnapshotManager(codec, initial),
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	logger.Debug("file store opened",
		"dir", dir,
		"log_entries", s.log.Len(),
		"snapshot_bytes", s.snap.Size(),
		"current_term", s.hard.CurrentTerm,
	)
	return s, nil
}

// AppendEntry adds e at the end of the log.
func (s *FileStore[S]) AppendEntry(e LogEntry) {
	s.log.Append(e)
	s.dirtyLog = true
	s.metrics.SetLogEntries(backendFile, s.log.Len())
}

// Entry returns the entry at pos, if in range.
func (s *FileStore[S]) Entry(pos int) (LogEntry, bool) { return s.log.Entry(pos) }

// EntriesFrom returns the entries from pos to the end.
func (s *FileStore[S]) EntriesFrom(pos int) []LogEntry { return s.log.EntriesFrom(pos) }

// NumEntries reports the stored entry count.
func (s *FileStore[S]) NumEntries() int { return s.log.Len() }

// LastConfigIndex returns the position of the most recent config entry.
func (s *FileStore[S]) LastConfigIndex() (int, bool) { return s.log.LastConfigIndex() }

// TruncatePrefix drops entries at positions < pos.
func (s *FileStore[S]) TruncatePrefix(pos int) {
	if pos <= 0 {
		return
	}
	s.log.TruncatePrefix(pos)
	s.dirtyLog = true
	s.metrics.SetLogEntries(backendFile, s.log.Len())
}

// TruncateSuffix drops entries at positions >= pos.
func (s *FileStore[S]) TruncateSuffix(pos int) {
	if pos >= s.log.Len() {
		return
	}
	s.log.TruncateSuffix(pos)
	s.dirtyLog = true
	s.metrics.SetLogEntries(backendFile, s.log.Len())
}

// InstallSnapshot encodes state and installs it as the current snapshot.
func (s *FileStore[S]) InstallSnapshot(lastIndex, lastTerm uint32, state S) {
	s.snap.Install(lastIndex, lastTerm, state)
	s.dirtySnap = true
	s.metrics.ObserveSnapshotBytes(backendFile, int(s.snap.Size()))
}

// SnapshotState decodes the current snapshot, or returns the initial state.
func (s *FileStore[S]) SnapshotState() S { return s.snap.State() }

// SnapshotMeta returns the installed snapshot metadata.
func (s *FileStore[S]) SnapshotMeta() SnapshotMeta { return s.snap.Meta() }

// SnapshotSize reports the installed payload size in bytes.
func (s *FileStore[S]) SnapshotSize() uint32 { return s.snap.Size() }

// SnapshotChunk serves payload bytes for an outbound transfer.
func (s *FileStore[S]) SnapshotChunk(offset, n uint32) ([]byte, error) {
	return s.snap.Chunk(offset, n)
}

// ReceiveSnapshotChunk buffers inbound transfer bytes at offset.
// The chunk buffer is transient and deliberately not persisted: after a
// crash the transfer restarts from scratch.
func (s *FileStore[S]) ReceiveSnapshotChunk(offset uint32, data []byte) {
	s.snap.ReceiveChunk(offset, data)
	s.metrics.IncSnapshotChunkReceived(backendFile, len(data))
}

// TryFinalizeSnapshot promotes the chunk buffer if it decodes.
func (s *FileStore[S]) TryFinalizeSnapshot(lastIndex, lastTerm uint32) (S, bool) {
	state, res := s.snap.TryFinalize(lastIndex, lastTerm)
	s.metrics.IncSnapshotFinalize(backendFile, res.String())
	if res != FinalizeInstalled {
		return state, false
	}
	s.dirtySnap = true
	s.metrics.ObserveSnapshotBytes(backendFile, int(s.snap.Size()))
	return state, true
}

// DiscardSnapshotChunks abandons the in-progress inbound transfer.
func (s *FileStore[S]) DiscardSnapshotChunks() { s.snap.DiscardChunks() }

// CurrentTerm returns the persisted term.
func (s *FileStore[S]) CurrentTerm() uint32 { return s.hard.CurrentTerm }

// SetCurrentTerm records the current term.
func (s *FileStore[S]) SetCurrentTerm(term uint32) {
	s.hard.CurrentTerm = term
	s.dirtyHard = true
}

// VotedFor returns the vote granted in the current term, if any.
func (s *FileStore[S]) VotedFor() (uint32, bool) { return s.hard.Vote() }

// SetVotedFor records a granted vote.
func (s *FileStore[S]) SetVotedFor(id uint32) {
	s.hard.SetVote(id)
	s.dirtyHard = true
}

// ClearVotedFor resets the vote to absent.
func (s *FileStore[S]) ClearVotedFor() {
	s.hard.ClearVote()
	s.dirtyHard = true
}

// Sync writes every dirty section to disk. On error the dirty flags are
// kept, so a later Sync retries; the caller must not acknowledge the
// covered mutations until Sync returns nil.
func (s *FileStore[S]) Sync() error {
	start := time.Now()

	if s.dirtyHard {
		if err := writeFileAtomically(s.hardStatePath(), mustJSON(s.hard)); err != nil {
			s.metrics.IncStorageError(backendFile, "sync_hard_state")
			return fmt.Errorf("raftstore: sync hard state: %w", err)
		}
		s.dirtyHard = false
	}
	if s.dirtyLog {
		if err := writeFileAtomically(s.logPath(), mustJSON(storedLog{Entries: s.log.EntriesFrom(0)})); err != nil {
			s.metrics.IncStorageError(backendFile, "sync_log")
			return fmt.Errorf("raftstore: sync log: %w", err)
		}
		s.dirtyLog = false
	}
	if s.dirtySnap {
		snap := storedSnapshot{SnapshotMeta: s.snap.Meta(), Payload: s.snap.Payload()}
		if err := writeFileAtomically(s.snapshotPath(), mustJSON(snap)); err != nil {
			s.metrics.IncStorageError(backendFile, "sync_snapshot")
			return fmt.Errorf("raftstore: sync snapshot: %w", err)
		}
		s.dirtySnap = false
	}

	s.metrics.ObserveSyncDuration(backendFile, time.Since(start))
	return nil
}

// Close flushes any dirty state before releasing the store.
func (s *FileStore[S]) Close() error {
	return s.Sync()
}

func (s *FileStore[S]) hardStatePath() string { return filepath.Join(s.dir, "hard_state.json") }
func (s *FileStore[S]) logPath() string       { return filepath.Join(s.dir, "log.json") }
func (s *FileStore[S]) snapshotPath() string  { return filepath.Join(s.dir, "snapshot.json") }

func (s *FileStore[S]) load() error {
	if err := readJSONFile(s.hardStatePath(), &s.hard); err != nil {
		return fmt.Errorf("raftstore: load hard state: %w", err)
	}

	var sl storedLog
	if err := readJSONFile(s.logPath(), &sl); err != nil {
		return fmt.Errorf("raftstore: load log: %w", err)
	}
	for _, e := range cloneEntries(sl.Entries) {
		s.log.Append(e)
	}

	var snap storedSnapshot
	if err := readJSONFile(s.snapshotPath(), &snap); err != nil {
		return fmt.Errorf("raftstore: load snapshot: %w", err)
	}
	if len(snap.Payload) > 0 {
		s.snap.Restore(snap.SnapshotMeta, snap.Payload)
	}
	return nil
}

// readJSONFile decodes path into v; a missing or empty file leaves v as-is.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func mustJSON(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		// All persisted types marshal without error; a failure here is a
		// programming bug, not a runtime condition.
		panic(err)
	}
	return payload
}

func writeFileAtomically(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	//nolint:gosec // tmpName and path are derived from internal storage paths, not user input.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	// Sync the parent directory so the rename itself is durable.
	//nolint:gosec // dir is derived from the configured storage directory under our control.
	dirFile, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = dirFile.Close() }()

	return dirFile.Sync()
}
