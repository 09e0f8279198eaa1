package compress

import (
	"bytes"
	"crypto/rand"
	"testing"
)

var allTypes = []uint16{TypeLZO, TypeZlib, TypeSnappy}

func roundTrip(t *testing.T, typ uint16, payload []byte) {
	t.Helper()

	cl, err := ByType(typ)
	if err != nil {
		t.Fatalf("ByType(%d): %v", typ, err)
	}
	if err := cl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	comp := make([]byte, cl.CompressOutputLen(len(payload)))
	n, err := cl.Compress(comp, payload)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if n < 1 || n > len(comp) {
		t.Fatalf("Compress returned %d with buffer %d", n, len(comp))
	}

	out := make([]byte, len(payload))
	m, err := cl.Decompress(out, comp[:n])
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if m != len(payload) {
		t.Fatalf("inflated %d bytes, want %d", m, len(payload))
	}
	if !bytes.Equal(out[:m], payload) {
		t.Fatalf("payload mismatch after round trip")
	}
}

func TestRoundTripCompressible(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox "), 200)
	for _, typ := range allTypes {
		roundTrip(t, typ, payload)
	}
}

func TestRoundTripEmpty(t *testing.T) {
	for _, typ := range allTypes {
		roundTrip(t, typ, nil)
	}
}

func TestRoundTripSingleByte(t *testing.T) {
	for _, typ := range allTypes {
		roundTrip(t, typ, []byte{0x42})
	}
}

func TestIncompressibleTakesRawPath(t *testing.T) {
	payload := make([]byte, 512)
	if _, err := rand.Read(payload); err != nil {
		t.Fatal(err)
	}

	for _, typ := range allTypes {
		cl, _ := ByType(typ)
		comp := make([]byte, cl.CompressOutputLen(len(payload)))
		n, err := cl.Compress(comp, payload)
		if err != nil {
			t.Fatalf("type %d Compress: %v", typ, err)
		}
		// random data must not shrink: status byte 0, bytes verbatim
		if comp[0] != 0 {
			// a backend may occasionally win a byte on random input;
			// the hard requirement is the round trip below
			t.Logf("type %d compressed random input to %d bytes", typ, n-1)
		} else {
			if n != len(payload)+1 {
				t.Fatalf("type %d raw path emitted %d bytes, want %d", typ, n, len(payload)+1)
			}
			if !bytes.Equal(comp[1:n], payload) {
				t.Fatalf("type %d raw path altered payload", typ)
			}
		}

		out := make([]byte, len(payload))
		m, err := cl.Decompress(out, comp[:n])
		if err != nil {
			t.Fatalf("type %d Decompress: %v", typ, err)
		}
		if !bytes.Equal(out[:m], payload) {
			t.Fatalf("type %d random payload mismatch", typ)
		}
	}
}

func TestDecompressMissingStatusByte(t *testing.T) {
	for _, typ := range allTypes {
		cl, _ := ByType(typ)
		if _, err := cl.Decompress(make([]byte, 16), nil); err == nil {
			t.Fatalf("type %d accepted empty input", typ)
		}
	}
}

func TestByTypeUnknown(t *testing.T) {
	if _, err := ByType(0); err == nil {
		t.Fatal("type 0 should not resolve")
	}
	if _, err := ByType(42); err == nil {
		t.Fatal("type 42 should not resolve")
	}
}
