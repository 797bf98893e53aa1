// Package wire implements the fixed binary layout shared by snapshot
// payloads and command records: big-endian fixed-width integers, and
// variable-length fields encoded as a u32 length followed by exactly that
// many raw bytes.
package wire

import (
	"encoding/binary"
	"unicode/utf8"
)

// Writer accumulates an encoded message in memory.
// The zero value is ready to use.
type Writer struct {
	buf []byte
}

// Uint32 appends v as 4 big-endian bytes.
func (w *Writer) Uint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// Bytes appends b as a u32 length prefix followed by the raw bytes.
func (w *Writer) Bytes(b []byte) {
	w.Uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// String appends s as a u32 length prefix followed by its UTF-8 bytes.
func (w *Writer) String(s string) {
	w.Uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Finish returns the accumulated encoding.
func (w *Writer) Finish() []byte {
	return w.buf
}

// Reader consumes an encoded message from a byte slice. Every read reports
// whether it succeeded; after a failed read the Reader stays at its previous
// position. Trailing bytes after the consumed portion are ignored, so an
// encoded value can sit inside a larger framed message.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Uint32 reads the next 4 bytes as a big-endian u32.
func (r *Reader) Uint32() (uint32, bool) {
	if len(r.buf)-r.off < 4 {
		return 0, false
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, true
}

// Bytes reads a u32 length prefix and then that many raw bytes.
// The returned slice aliases the underlying buffer.
func (r *Reader) Bytes() ([]byte, bool) {
	n, ok := r.Uint32()
	if !ok {
		return nil, false
	}
	// The length field is untrusted; check it against the remaining bytes
	// before touching the buffer.
	if uint64(n) > uint64(len(r.buf)-r.off) {
		r.off -= 4
		return nil, false
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, true
}

// String reads a length-prefixed field and validates it as UTF-8.
func (r *Reader) String() (string, bool) {
	start := r.off
	b, ok := r.Bytes()
	if !ok {
		return "", false
	}
	if !utf8.Valid(b) {
		r.off = start
		return "", false
	}
	return string(b), true
}

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}
