package raftstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"
)

const backendSQLite = "sqlite"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS hard_state (
	id           INTEGER PRIMARY KEY CHECK (id = 0),
	current_term INTEGER NOT NULL,
	voted_for    INTEGER
);
CREATE TABLE IF NOT EXISTS log (
	pos  INTEGER PRIMARY KEY,
	term INTEGER NOT NULL,
	type INTEGER NOT NULL,
	data BLOB
);
CREATE TABLE IF NOT EXISTS snapshot (
	id         INTEGER PRIMARY KEY CHECK (id = 0),
	last_index INTEGER NOT NULL,
	last_term  INTEGER NOT NULL,
	payload    BLOB
);
`

// SQLiteStore is a Store persisted in a SQLite database. Like FileStore it
// mutates an in-memory image and tracks dirty sections; Sync commits all
// dirty sections in a single transaction, which is the durability point.
type SQLiteStore[S any] struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics Metrics

	log  Log
	snap *SnapshotManager[S]
	hard HardState

	dirtyLog  bool
	dirtyHard bool
	dirtySnap bool
}

// NewSQLiteStore opens (or initializes) a SQLite-backed store at path,
// restoring any previously committed state.
func NewSQLiteStore[S any](path string, codec Codec[S], initial S, logger *slog.Logger, metrics Metrics) (*SQLiteStore[S], error) {
	if codec == nil {
		return nil, ErrNilCodec
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("raftstore: open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("raftstore: init sqlite schema: %w", err)
	}

	s := &SQLiteStore[S]{
		db:      db,
		logger:  logger,
		metrics: metrics,
		snap:    NewSnapshotManager(codec, initial),
	}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("sqlite store opened",
		"path", path,
		"log_entries", s.log.Len(),
		"snapshot_bytes", s.snap.Size(),
		"current_term", s.hard.CurrentTerm,
	)
	return s, nil
}

// AppendEntry adds e at the end of the log.
func (s *SQLiteStore[S]) AppendEntry(e LogEntry) {
	s.log.Append(e)
	s.dirtyLog = true
	s.metrics.SetLogEntries(backendSQLite, s.log.Len())
}

// Entry returns the entry at pos, if in range.
func (s *SQLiteStore[S]) Entry(pos int) (LogEntry, bool) { return s.log.Entry(pos) }

// EntriesFrom returns the entries from pos to the end.
func (s *SQLiteStore[S]) EntriesFrom(pos int) []LogEntry { return s.log.EntriesFrom(pos) }

// NumEntries reports the stored entry count.
func (s *SQLiteStore[S]) NumEntries() int { return s.log.Len() }

// LastConfigIndex returns the position of the most recent config entry.
func (s *SQLiteStore[S]) LastConfigIndex() (int, bool) { return s.log.LastConfigIndex() }

// TruncatePrefix drops entries at positions < pos.
func (s *SQLiteStore[S]) TruncatePrefix(pos int) {
	if pos <= 0 {
		return
	}
	s.log.TruncatePrefix(pos)
	s.dirtyLog = true
	s.metrics.SetLogEntries(backendSQLite, s.log.Len())
}

// TruncateSuffix drops entries at positions >= pos.
func (s *SQLiteStore[S]) TruncateSuffix(pos int) {
	if pos >= s.log.Len() {
		return
	}
	s.log.TruncateSuffix(pos)
	s.dirtyLog = true
	s.metrics.SetLogEntries(backendSQLite, s.log.Len())
}

// InstallSnapshot encodes state and installs it as the current snapshot.
func (s *SQLiteStore[S]) InstallSnapshot(lastIndex, lastTerm uint32, state S) {
	s.snap.Install(lastIndex, lastTerm, state)
	s.dirtySnap = true
	s.metrics.ObserveSnapshotBytes(backendSQLite, int(s.snap.Size()))
}

// SnapshotState decodes the current snapshot, or returns the initial state.
func (s *SQLiteStore[S]) SnapshotState() S { return s.snap.State() }

// SnapshotMeta returns the installed snapshot metadata.
func (s *SQLiteStore[S]) SnapshotMeta() SnapshotMeta { return s.snap.Meta() }

// SnapshotSize reports the installed payload size in bytes.
func (s *SQLiteStore[S]) SnapshotSize() uint32 { return s.snap.Size() }

// SnapshotChunk serves payload bytes for an outbound transfer.
func (s *SQLiteStore[S]) SnapshotChunk(offset, n uint32) ([]byte, error) {
	return s.snap.Chunk(offset, n)
}

// ReceiveSnapshotChunk buffers inbound transfer bytes at offset. The buffer
// is transient and not persisted; a crash restarts the transfer.
func (s *SQLiteStore[S]) ReceiveSnapshotChunk(offset uint32, data []byte) {
	s.snap.ReceiveChunk(offset, data)
	s.metrics.IncSnapshotChunkReceived(backendSQLite, len(data))
}

// TryFinalizeSnapshot promotes the chunk buffer if it decodes.
func (s *SQLiteStore[S]) TryFinalizeSnapshot(lastIndex, lastTerm uint32) (S, bool) {
	state, res := s.snap.TryFinalize(lastIndex, lastTerm)
	s.metrics.IncSnapshotFinalize(backendSQLite, res.String())
	if res != FinalizeInstalled {
		return state, false
	}
	s.dirtySnap = true
	s.metrics.ObserveSnapshotBytes(backendSQLite, int(s.snap.Size()))
	return state, true
}

// DiscardSnapshotChunks abandons the in-progress inbound transfer.
func (s *SQLiteStore[S]) DiscardSnapshotChunks() { s.snap.DiscardChunks() }

// CurrentTerm returns the persisted term.
func (s *SQLiteStore[S]) CurrentTerm() uint32 { return s.hard.CurrentTerm }

// SetCurrentTerm records the current term.
func (s *SQLiteStore[S]) SetCurrentTerm(term uint32) {
	s.hard.CurrentTerm = term
	s.dirtyHard = true
}

// VotedFor returns the vote granted in the current term, if any.
func (s *SQLiteStore[S]) VotedFor() (uint32, bool) { return s.hard.Vote() }

// SetVotedFor records a granted vote.
func (s *SQLiteStore[S]) SetVotedFor(id uint32) {
	s.hard.SetVote(id)
	s.dirtyHard = true
}

// ClearVotedFor resets the vote to absent.
func (s *SQLiteStore[S]) ClearVotedFor() {
	s.hard.ClearVote()
	s.dirtyHard = true
}

// Sync commits every dirty section in one transaction. On error the dirty
// flags are kept so a later Sync retries.
func (s *SQLiteStore[S]) Sync() error {
	if !s.dirtyHard && !s.dirtyLog && !s.dirtySnap {
		return nil
	}
	start := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		s.metrics.IncStorageError(backendSQLite, "sync_begin")
		return fmt.Errorf("raftstore: sync begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.dirtyHard {
		if err := s.writeHardState(tx); err != nil {
			s.metrics.IncStorageError(backendSQLite, "sync_hard_state")
			return fmt.Errorf("raftstore: sync hard state: %w", err)
		}
	}
	if s.dirtyLog {
		if err := s.writeLog(tx); err != nil {
			s.metrics.IncStorageError(backendSQLite, "sync_log")
			return fmt.Errorf("raftstore: sync log: %w", err)
		}
	}
	if s.dirtySnap {
		if err := s.writeSnapshot(tx); err != nil {
			s.metrics.IncStorageError(backendSQLite, "sync_snapshot")
			return fmt.Errorf("raftstore: sync snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.metrics.IncStorageError(backendSQLite, "sync_commit")
		return fmt.Errorf("raftstore: sync commit: %w", err)
	}

	s.dirtyHard = false
	s.dirtyLog = false
	s.dirtySnap = false
	s.metrics.ObserveSyncDuration(backendSQLite, time.Since(start))
	return nil
}

// Close flushes dirty state and releases the database handle.
func (s *SQLiteStore[S]) Close() error {
	syncErr := s.Sync()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("raftstore: close sqlite: %w", err)
	}
	return syncErr
}

func (s *SQLiteStore[S]) writeHardState(tx *sql.Tx) error {
	var votedFor sql.NullInt64
	if id, ok := s.hard.Vote(); ok {
		votedFor = sql.NullInt64{Int64: int64(id), Valid: true}
	}
	_, err := tx.Exec(
		`INSERT OR REPLACE INTO hard_state (id, current_term, voted_for) VALUES (0, ?, ?)`,
		int64(s.hard.CurrentTerm), votedFor,
	)
	return err
}

// writeLog rewrites the full entry table. Positions shift on prefix
// truncation, so an in-place diff buys little for a log that fits in memory.
func (s *SQLiteStore[S]) writeLog(tx *sql.Tx) error {
	if _, err := tx.Exec(`DELETE FROM log`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO log (pos, term, type, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for pos, e := range s.log.EntriesFrom(0) {
		if _, err := stmt.Exec(int64(pos), int64(e.Term), int64(e.Type), e.Data); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore[S]) writeSnapshot(tx *sql.Tx) error {
	meta := s.snap.Meta()
	_, err := tx.Exec(
		`INSERT OR REPLACE INTO snapshot (id, last_index, last_term, payload) VALUES (0, ?, ?, ?)`,
		int64(meta.LastIndex), int64(meta.LastTerm), s.snap.Payload(),
	)
	return err
}

func (s *SQLiteStore[S]) load() error {
	var term int64
	var votedFor sql.NullInt64
	err := s.db.QueryRow(`SELECT current_term, voted_for FROM hard_state WHERE id = 0`).Scan(&term, &votedFor)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("raftstore: load hard state: %w", err)
	default:
		s.hard.CurrentTerm = uint32(term)
		if votedFor.Valid {
			s.hard.SetVote(uint32(votedFor.Int64))
		}
	}

	rows, err := s.db.Query(`SELECT term, type, data FROM log ORDER BY pos`)
	if err != nil {
		return fmt.Errorf("raftstore: load log: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var entryTerm, entryType int64
		var data []byte
		if err := rows.Scan(&entryTerm, &entryType, &data); err != nil {
			return fmt.Errorf("raftstore: scan log entry: %w", err)
		}
		s.log.Append(LogEntry{Term: uint32(entryTerm), Type: EntryType(entryType), Data: data})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("raftstore: load log: %w", err)
	}

	var lastIndex, lastTerm int64
	var payload []byte
	err = s.db.QueryRow(`SELECT last_index, last_term, payload FROM snapshot WHERE id = 0`).Scan(&lastIndex, &lastTerm, &payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("raftstore: load snapshot: %w", err)
	default:
		if len(payload) > 0 {
			s.snap.Restore(SnapshotMeta{LastIndex: uint32(lastIndex), LastTerm: uint32(lastTerm)}, payload)
		}
	}
	return nil
}
