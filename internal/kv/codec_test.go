package kv

import (
	"maps"
	"testing"
)

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"empty", State{}},
		{"single pair", State{"a": "1"}},
		{"several pairs", State{"a": "1", "b": "2", "c": "3"}},
		{"empty key and value", State{"": ""}},
		{"unicode", State{"ключ": "значение", "日本": "語"}},
	}

	var codec Codec
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, ok := codec.Decode(codec.Encode(tt.state))
			if !ok {
				t.Fatal("Decode() failed on valid encoding")
			}
			// Map iteration order is not stable across encodes; only the
			// pair set must round-trip.
			if !maps.Equal(decoded, tt.state) {
				t.Fatalf("round trip mismatch: got %v, want %v", decoded, tt.state)
			}
		})
	}
}

func TestCodec_DecodeToleratesTrailingBytes(t *testing.T) {
	var codec Codec
	buf := append(codec.Encode(State{"k": "v"}), 0x01, 0x02, 0x03)

	decoded, ok := codec.Decode(buf)
	if !ok {
		t.Fatal("Decode() failed with trailing bytes")
	}
	if decoded["k"] != "v" {
		t.Fatalf("decoded = %v, want map[k:v]", decoded)
	}
}

func TestCodec_DecodeRejectsTruncation(t *testing.T) {
	var codec Codec
	full := codec.Encode(State{"key": "value", "other": "pair"})

	// Every strict prefix is incomplete: either a count/length field is cut
	// short or a declared field is missing bytes.
	for n := 0; n < len(full); n++ {
		if _, ok := codec.Decode(full[:n]); ok {
			t.Fatalf("Decode() accepted truncated input of %d/%d bytes", n, len(full))
		}
	}
}

func TestCodec_DecodeRejectsOversizedPairCount(t *testing.T) {
	var codec Codec
	tests := []struct {
		name string
		buf  []byte
	}{
		{"max count, no pairs", []byte{0xff, 0xff, 0xff, 0xff}},
		{"large count, one pair", append([]byte{0x00, 0x10, 0x00, 0x00}, codec.Encode(State{"k": "v"})[4:]...)},
		{"count one over", []byte{0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := codec.Decode(tt.buf); ok {
				t.Fatal("Decode() accepted a pair count the input cannot hold")
			}
		})
	}
}

func TestCodec_DecodeRejectsInvalidUTF8(t *testing.T) {
	var codec Codec
	buf := []byte{
		0x00, 0x00, 0x00, 0x01, // one pair
		0x00, 0x00, 0x00, 0x02, 0xff, 0xfe, // key: invalid UTF-8
		0x00, 0x00, 0x00, 0x01, 'v',
	}
	if _, ok := codec.Decode(buf); ok {
		t.Fatal("Decode() accepted invalid UTF-8 key")
	}
}

func TestCodec_DecodeNilInput(t *testing.T) {
	var codec Codec
	if _, ok := codec.Decode(nil); ok {
		t.Fatal("Decode() accepted empty input")
	}
}
