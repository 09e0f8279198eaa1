package sidp

import (
	"bytes"
	"testing"
)

func TestDLHeaderWireLayout(t *testing.T) {
	h := dlHeader{
		DefSize:      0x1234,
		InfSize:      0x0506,
		SessionType:  1,
		CipherType:   2,
		CompressType: 3,
		MsgType:      MsgTypeData,
	}

	buf := make([]byte, dlHeaderLen)
	h.marshal(buf)

	// def_size and inf_size ride in the first two bytes of their 4-byte
	// slots, trailing bytes zero
	want := []byte{
		0x12, 0x34, 0, 0,
		0x05, 0x06, 0, 0,
		0, 1,
		0, 2,
		0, 3,
		0, 0,
		0, 0, 0, 0,
	}
	if !bytes.Equal(buf, want) {
		t.Fatalf("header bytes\n got %x\nwant %x", buf, want)
	}

	var got dlHeader
	got.unmarshal(buf)
	if got != h {
		t.Fatalf("unmarshal %+v, want %+v", got, h)
	}
}
