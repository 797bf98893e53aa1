// Package raftstore implements the durable-state backend a consensus node
// drives: the replicated command log, point-in-time snapshots with chunked
// transfer reassembly, and the persistent term/vote record.
package raftstore

import "errors"

// EntryType identifies the kind of log entry payload.
type EntryType uint8

// Supported log entry types.
const (
	EntryCommand EntryType = 0 // codec-encoded application command
	EntryConfig  EntryType = 1 // cluster configuration change
)

// LogEntry is a single entry in the replicated log. Data holds the encoded
// command or configuration payload; the store never decodes it.
type LogEntry struct {
	Term uint32    `json:"term"`
	Type EntryType `json:"type"`
	Data []byte    `json:"data"`
}

// SnapshotMeta describes the most recent log entry subsumed by an installed
// snapshot payload. Once a snapshot is installed the metadata never moves
// backward.
type SnapshotMeta struct {
	LastIndex uint32 `json:"last_index"`
	LastTerm  uint32 `json:"last_term"`
}

// Codec is the byte contract an application state type must satisfy to be
// held by the store. Decode reports failure instead of panicking, and must
// ignore trailing bytes after a complete value.
type Codec[S any] interface {
	Encode(state S) []byte
	Decode(data []byte) (S, bool)
}

// ErrOutOfRange is returned for a chunk read outside the installed snapshot
// payload. The offset/length pair crosses an untrusted boundary, so this is
// a recoverable error rather than a panic.
var ErrOutOfRange = errors.New("raftstore: chunk out of range")

// ErrNilLogger is returned when a durable store is constructed without a logger.
var ErrNilLogger = errors.New("raftstore: nil logger")

// ErrNilCodec is returned when a store is constructed without a codec.
var ErrNilCodec = errors.New("raftstore: nil codec")

func cloneEntries(entries []LogEntry) []LogEntry {
	if entries == nil {
		return nil
	}
	out := make([]LogEntry, len(entries))
	for i, e := range entries {
		cp := e
		cp.Data = append([]byte(nil), e.Data...)
		out[i] = cp
	}
	return out
}
