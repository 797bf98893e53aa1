package kv

import "github.com/funkiben/raftstore/internal/wire"

// State is a point-in-time value of the key-value mapping, the unit the
// storage backend encodes into snapshot payloads.
type State map[string]string

// Codec implements the snapshot byte contract for State: a u32 pair count
// followed by length-prefixed key and value bytes per pair. Map iteration
// order is not stable, so two encodes of equal states may differ byte-wise;
// only the decoded pair set round-trips.
type Codec struct{}

// Encode serializes s.
func (Codec) Encode(s State) []byte {
	var w wire.Writer
	w.Uint32(uint32(len(s)))
	for key, value := range s {
		w.String(key)
		w.String(value)
	}
	return w.Finish()
}

// Decode parses an encoded State. It reports failure on truncated input,
// malformed UTF-8, or missing pairs, and never panics on adversarial bytes;
// trailing bytes after the declared pairs are ignored.
func (Codec) Decode(data []byte) (State, bool) {
	r := wire.NewReader(data)
	count, ok := r.Uint32()
	if !ok {
		return nil, false
	}
	// Every pair carries at least its two length prefixes, so an honest
	// count never exceeds the remaining bytes divided by 8. Checking before
	// the allocation keeps an adversarial count from sizing the map.
	if uint64(count) > uint64(r.Remaining())/8 {
		return nil, false
	}
	state := make(State, count)
	for i := uint32(0); i < count; i++ {
		key, ok := r.String()
		if !ok {
			return nil, false
		}
		value, ok := r.String()
		if !ok {
			return nil, false
		}
		state[key] = value
	}
	return state, true
}
