package kv

import "testing"

func TestSetCommand_RoundTrip(t *testing.T) {
	cmd := SetCommand{Key: "color", Value: "blue", MID: "mid-42"}

	decoded, ok := DecodeSetCommand(cmd.Encode())
	if !ok {
		t.Fatal("DecodeSetCommand() failed on valid encoding")
	}
	if decoded != cmd {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, cmd)
	}
}

func TestSetCommand_FieldOrder(t *testing.T) {
	cmd := SetCommand{Key: "k", Value: "v", MID: "m"}

	want := []byte{
		0x00, 0x00, 0x00, 0x01, 'k',
		0x00, 0x00, 0x00, 0x01, 'v',
		0x00, 0x00, 0x00, 0x01, 'm',
	}
	got := cmd.Encode()
	if string(got) != string(want) {
		t.Fatalf("encoding mismatch:\n got %x\nwant %x", got, want)
	}
}

func TestDecodeSetCommand_Truncated(t *testing.T) {
	full := SetCommand{Key: "key", Value: "value", MID: "message-id"}.Encode()
	for n := 0; n < len(full); n++ {
		if _, ok := DecodeSetCommand(full[:n]); ok {
			t.Fatalf("DecodeSetCommand() accepted %d/%d bytes", n, len(full))
		}
	}
}

func TestNewSetCommand_MintsMessageID(t *testing.T) {
	a := NewSetCommand("k", "v")
	b := NewSetCommand("k", "v")

	if a.MID == "" || b.MID == "" {
		t.Fatal("expected non-empty message ids")
	}
	if a.MID == b.MID {
		t.Fatalf("expected distinct message ids, both %q", a.MID)
	}
}
