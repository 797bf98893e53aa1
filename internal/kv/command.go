// Package kv implements the reference key-value state machine held by the
// storage backend: a string-to-string mapping and the set-value command
// replicated through the log.
package kv

import (
	"github.com/google/uuid"

	"github.com/funkiben/raftstore/internal/wire"
)

// SetCommand assigns Value to Key. MID is the client message id the caller
// uses for idempotent-apply bookkeeping; the state machine itself treats it
// as an opaque tag.
type SetCommand struct {
	Key   string
	Value string
	MID   string
}

// NewSetCommand builds a SetCommand with a freshly minted message id, for
// callers that originate commands locally rather than relaying client ones.
func NewSetCommand(key, value string) SetCommand {
	return SetCommand{Key: key, Value: value, MID: uuid.NewString()}
}

// Encode serializes the command as length-prefixed key, value, and message
// id, in that fixed order.
func (c SetCommand) Encode() []byte {
	var w wire.Writer
	w.String(c.Key)
	w.String(c.Value)
	w.String(c.MID)
	return w.Finish()
}

// DecodeSetCommand parses an encoded command. It reports failure on
// truncated or malformed input and ignores trailing bytes.
func DecodeSetCommand(data []byte) (SetCommand, bool) {
	r := wire.NewReader(data)
	key, ok := r.String()
	if !ok {
		return SetCommand{}, false
	}
	value, ok := r.String()
	if !ok {
		return SetCommand{}, false
	}
	mid, ok := r.String()
	if !ok {
		return SetCommand{}, false
	}
	return SetCommand{Key: key, Value: value, MID: mid}, true
}
