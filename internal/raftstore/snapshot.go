package raftstore

import "sort"

// SnapshotManager holds the last installed snapshot of the application state
// and reassembles incoming snapshots from byte chunks that may arrive out of
// order, duplicated, or overlapping.
//
// There is no total-length or checksum handshake in the transfer protocol:
// the accumulated buffer is complete exactly when the codec can decode it.
// A partially received buffer fails to decode because some internal length
// field points past the truncated end. To keep zero-filled gaps from ever
// reaching the decoder (a zeroed length prefix is indistinguishable from an
// empty value), finalization only considers the contiguously received
// prefix of the buffer.
type SnapshotManager[S any] struct {
	codec   Codec[S]
	initial S

	payload []byte
	meta    SnapshotMeta

	chunks chunkBuffer
}

// NewSnapshotManager returns a manager with no installed snapshot.
// initial is the state returned before any snapshot exists.
func NewSnapshotManager[S any](codec Codec[S], initial S) *SnapshotManager[S] {
	return &SnapshotManager[S]{codec: codec, initial: initial}
}

// Install encodes state and replaces the installed snapshot payload and
// metadata together. A stale install (lastIndex behind the current snapshot)
// is ignored so metadata never moves backward. Any in-progress inbound
// transfer is abandoned.
func (m *SnapshotManager[S]) Install(lastIndex, lastTerm uint32, state S) {
	if m.payload != nil && lastIndex < m.meta.LastIndex {
		return
	}
	m.payload = m.codec.Encode(state)
	m.meta = SnapshotMeta{LastIndex: lastIndex, LastTerm: lastTerm}
	m.chunks.reset()
}

// State decodes the installed payload. If no snapshot was ever installed
// (or the payload does not decode) it returns the initial state, which is
// the bootstrap path for a brand-new node.
func (m *SnapshotManager[S]) State() S {
	if state, ok := m.codec.Decode(m.payload); ok {
		return state
	}
	return m.initial
}

// Meta returns the metadata of the installed snapshot.
func (m *SnapshotManager[S]) Meta() SnapshotMeta {
	return m.meta
}

// Size reports the installed payload size in bytes.
func (m *SnapshotManager[S]) Size() uint32 {
	return uint32(len(m.payload))
}

// Chunk returns the payload bytes in [offset, offset+n) for an outbound
// transfer. Callers bound their requests with Size; a request outside the
// payload returns ErrOutOfRange.
func (m *SnapshotManager[S]) Chunk(offset, n uint32) ([]byte, error) {
	end := uint64(offset) + uint64(n)
	if end > uint64(len(m.payload)) {
		return nil, ErrOutOfRange
	}
	return m.payload[offset:end], nil
}

// ReceiveChunk writes data into the reassembly buffer at offset, growing the
// buffer and zero-filling any gap before offset. Re-delivery of the same
// region is idempotent: the last write wins for the overlapped bytes.
func (m *SnapshotManager[S]) ReceiveChunk(offset uint32, data []byte) {
	m.chunks.write(int(offset), data)
}

// FinalizeResult classifies the outcome of TryFinalize.
type FinalizeResult int

// Finalize outcomes, from least to most settled.
const (
	// FinalizeIncomplete: the buffer does not decode yet; it is left
	// untouched so later chunks and retries can complete it.
	FinalizeIncomplete FinalizeResult = iota
	// FinalizeStale: the buffer decoded but targets an index behind the
	// installed snapshot; the buffer is dropped, the snapshot kept.
	FinalizeStale
	// FinalizeInstalled: the buffer became the new installed payload.
	FinalizeInstalled
)

func (r FinalizeResult) String() string {
	switch r {
	case FinalizeStale:
		return "stale"
	case FinalizeInstalled:
		return "installed"
	default:
		return "incomplete"
	}
}

// TryFinalize attempts to decode the contiguously received prefix of the
// reassembly buffer. On FinalizeInstalled the buffer becomes the new
// installed payload, metadata moves to (lastIndex, lastTerm), the buffer is
// cleared, and the decoded state is returned.
func (m *SnapshotManager[S]) TryFinalize(lastIndex, lastTerm uint32) (S, FinalizeResult) {
	prefix := m.chunks.contiguousPrefix()
	state, ok := m.codec.Decode(prefix)
	if !ok {
		var zero S
		return zero, FinalizeIncomplete
	}
	if m.payload != nil && lastIndex < m.meta.LastIndex {
		// Stale transfer: drop the buffer but keep the newer snapshot.
		m.chunks.reset()
		var zero S
		return zero, FinalizeStale
	}
	m.payload = prefix
	m.meta = SnapshotMeta{LastIndex: lastIndex, LastTerm: lastTerm}
	m.chunks.reset()
	return state, FinalizeInstalled
}

// DiscardChunks abandons the in-progress inbound transfer, if any.
// The installed snapshot is unaffected.
func (m *SnapshotManager[S]) DiscardChunks() {
	m.chunks.reset()
}

// Payload exposes the raw installed snapshot bytes for persistence layers.
func (m *SnapshotManager[S]) Payload() []byte {
	return m.payload
}

// Restore replaces the installed snapshot with previously persisted bytes
// without re-encoding, used when a durable backend loads its state.
func (m *SnapshotManager[S]) Restore(meta SnapshotMeta, payload []byte) {
	m.meta = meta
	m.payload = payload
}

// chunkBuffer is a sparse, offset-addressed byte buffer. It grows with zero
// fill and remembers which ranges were actually written, so unwritten gap
// bytes are never mistaken for received data.
type chunkBuffer struct {
	buf     []byte
	written []byteRange // sorted, non-overlapping
}

type byteRange struct {
	start, end int
}

func (b *chunkBuffer) write(offset int, data []byte) {
	end := offset + len(data)
	if end > len(b.buf) {
		grown := make([]byte, end)
		copy(grown, b.buf)
		b.buf = grown
	}
	copy(b.buf[offset:], data)
	if len(data) > 0 {
		b.mark(byteRange{start: offset, end: end})
	}
}

// mark inserts r into the written set, merging overlapping or adjacent ranges.
func (b *chunkBuffer) mark(r byteRange) {
	b.written = append(b.written, r)
	sort.Slice(b.written, func(i, j int) bool { return b.written[i].start < b.written[j].start })

	merged := b.written[:1]
	for _, next := range b.written[1:] {
		last := &merged[len(merged)-1]
		if next.start <= last.end {
			if next.end > last.end {
				last.end = next.end
			}
			continue
		}
		merged = append(merged, next)
	}
	b.written = merged
}

// contiguousPrefix returns the received bytes from offset 0 up to the first
// gap. Empty until the chunk at offset 0 has arrived.
func (b *chunkBuffer) contiguousPrefix() []byte {
	if len(b.written) == 0 || b.written[0].start != 0 {
		return nil
	}
	return b.buf[:b.written[0].end]
}

func (b *chunkBuffer) reset() {
	b.buf = nil
	b.written = nil
}
