package raftstore

// Store is the single surface the consensus engine drives: log CRUD,
// snapshot CRUD with chunked transfer, and the term/vote record.
//
// A Store is driven by one control loop and performs no internal locking;
// a concurrent host must serialize access itself. Sync is the durability
// hook: everything mutated before a successful Sync is on stable storage,
// and the caller must not send any externally visible message that depends
// on a mutation until the covering Sync returns nil.
type Store[S any] interface {
	// Log operations. Positions are dense 0-based offsets into the stored
	// entry sequence; the caller maps them to global log indices.
	AppendEntry(e LogEntry)
	Entry(pos int) (LogEntry, bool)
	EntriesFrom(pos int) []LogEntry
	NumEntries() int
	LastConfigIndex() (int, bool)
	TruncatePrefix(pos int)
	TruncateSuffix(pos int)

	// Snapshot operations.
	InstallSnapshot(lastIndex, lastTerm uint32, state S)
	SnapshotState() S
	SnapshotMeta() SnapshotMeta
	SnapshotSize() uint32
	SnapshotChunk(offset, n uint32) ([]byte, error)
	ReceiveSnapshotChunk(offset uint32, data []byte)
	TryFinalizeSnapshot(lastIndex, lastTerm uint32) (S, bool)
	DiscardSnapshotChunks()

	// Term/vote record.
	CurrentTerm() uint32
	SetCurrentTerm(term uint32)
	VotedFor() (uint32, bool)
	SetVotedFor(id uint32)
	ClearVotedFor()

	// Durability.
	Sync() error
	Close() error
}

// MemoryStore is the in-memory reference Store. Sync is a no-op, so it is
// suitable for tests and for hosts that accept losing state on crash.
type MemoryStore[S any] struct {
	log  Log
	snap *SnapshotManager[S]
	hard HardState
}

// NewMemoryStore returns an empty in-memory store. initial is the state
// reported before any snapshot is installed.
func NewMemoryStore[S any](codec Codec[S], initial S) (*MemoryStore[S], error) {
	if codec == nil {
		return nil, ErrNilCodec
	}
	return &MemoryStore[S]{snap: NewSnapshotManager(codec, initial)}, nil
}

// AppendEntry adds e at the end of the log.
func (s *MemoryStore[S]) AppendEntry(e LogEntry) { s.log.Append(e) }

// Entry returns the entry at pos, if in range.
func (s *MemoryStore[S]) Entry(pos int) (LogEntry, bool) { return s.log.Entry(pos) }

// EntriesFrom returns the entries from pos to the end.
func (s *MemoryStore[S]) EntriesFrom(pos int) []LogEntry { return s.log.EntriesFrom(pos) }

// NumEntries reports the stored entry count.
func (s *MemoryStore[S]) NumEntries() int { return s.log.Len() }

// LastConfigIndex returns the position of the most recent config entry.
func (s *MemoryStore[S]) LastConfigIndex() (int, bool) { return s.log.LastConfigIndex() }

// TruncatePrefix drops entries at positions < pos.
func (s *MemoryStore[S]) TruncatePrefix(pos int) { s.log.TruncatePrefix(pos) }

// TruncateSuffix drops entries at positions >= pos.
func (s *MemoryStore[S]) TruncateSuffix(pos int) { s.log.TruncateSuffix(pos) }

// InstallSnapshot encodes state and installs it as the current snapshot.
func (s *MemoryStore[S]) InstallSnapshot(lastIndex, lastTerm uint32, state S) {
	s.snap.Install(lastIndex, lastTerm, state)
}

// SnapshotState decodes the current snapshot, or returns the initial state.
func (s *MemoryStore[S]) SnapshotState() S { return s.snap.State() }

// SnapshotMeta returns the installed snapshot metadata.
func (s *MemoryStore[S]) SnapshotMeta() SnapshotMeta { return s.snap.Meta() }

// SnapshotSize reports the installed payload size in bytes.
func (s *MemoryStore[S]) SnapshotSize() uint32 { return s.snap.Size() }

// SnapshotChunk serves payload bytes for an outbound transfer.
func (s *MemoryStore[S]) SnapshotChunk(offset, n uint32) ([]byte, error) {
	return s.snap.Chunk(offset, n)
}

// ReceiveSnapshotChunk buffers inbound transfer bytes at offset.
func (s *MemoryStore[S]) ReceiveSnapshotChunk(offset uint32, data []byte) {
	s.snap.ReceiveChunk(offset, data)
}

// TryFinalizeSnapshot promotes the chunk buffer if it decodes.
func (s *MemoryStore[S]) TryFinalizeSnapshot(lastIndex, lastTerm uint32) (S, bool) {
	state, res := s.snap.TryFinalize(lastIndex, lastTerm)
	return state, res == FinalizeInstalled
}

// DiscardSnapshotChunks abandons the in-progress inbound transfer.
func (s *MemoryStore[S]) DiscardSnapshotChunks() { s.snap.DiscardChunks() }

// CurrentTerm returns the persisted term.
func (s *MemoryStore[S]) CurrentTerm() uint32 { return s.hard.CurrentTerm }

// SetCurrentTerm records the current term.
func (s *MemoryStore[S]) SetCurrentTerm(term uint32) { s.hard.CurrentTerm = term }

// VotedFor returns the vote granted in the current term, if any.
func (s *MemoryStore[S]) VotedFor() (uint32, bool) { return s.hard.Vote() }

// SetVotedFor records a granted vote.
func (s *MemoryStore[S]) SetVotedFor(id uint32) { s.hard.SetVote(id) }

// ClearVotedFor resets the vote to absent.
func (s *MemoryStore[S]) ClearVotedFor() { s.hard.ClearVote() }

// Sync is a no-op for the in-memory store.
func (s *MemoryStore[S]) Sync() error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore[S]) Close() error { return nil }
