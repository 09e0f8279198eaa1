package encrypt

import (
	"bytes"
	"testing"
)

var allTypes = []uint16{TypeAES256, TypeXSalsa20, TypeChaCha20, TypeXChaCha20}

func TestRoundTripAllCiphers(t *testing.T) {
	key := []byte("correct horse battery staple")
	payloads := [][]byte{
		nil,
		{0x00},
		[]byte("hello\x00"),
		bytes.Repeat([]byte{0xa5}, 4096),
	}

	for _, typ := range allTypes {
		el, err := ByType(typ)
		if err != nil {
			t.Fatalf("ByType(%d): %v", typ, err)
		}
		if err := el.Init(); err != nil {
			t.Fatalf("Init: %v", err)
		}

		for _, payload := range payloads {
			ct := make([]byte, el.EncryptOutputLen(len(payload)))
			n, err := el.Encrypt(ct, payload, key)
			if err != nil {
				t.Fatalf("type %d Encrypt: %v", typ, err)
			}
			if n != len(ct) {
				t.Fatalf("type %d Encrypt wrote %d, bound %d", typ, n, len(ct))
			}
			if n <= len(payload) {
				t.Fatalf("type %d ciphertext not longer than plaintext", typ)
			}

			pt := make([]byte, el.DecryptOutputLen(n))
			m, err := el.Decrypt(pt, ct[:n], key)
			if err != nil {
				t.Fatalf("type %d Decrypt: %v", typ, err)
			}
			if m != len(payload) || !bytes.Equal(pt[:m], payload) {
				t.Fatalf("type %d round trip mismatch (%d bytes)", typ, m)
			}
		}
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	payload := []byte("sensitive bytes")

	for _, typ := range allTypes {
		el, _ := ByType(typ)
		ct := make([]byte, el.EncryptOutputLen(len(payload)))
		n, err := el.Encrypt(ct, payload, []byte("key one"))
		if err != nil {
			t.Fatalf("type %d Encrypt: %v", typ, err)
		}

		pt := make([]byte, el.DecryptOutputLen(n))
		if _, err := el.Decrypt(pt, ct[:n], []byte("key two")); err == nil {
			t.Fatalf("type %d accepted wrong key", typ)
		}
	}
}

func TestDecryptTamperedFails(t *testing.T) {
	payload := []byte("tamper target")
	key := []byte("shared")

	for _, typ := range allTypes {
		el, _ := ByType(typ)
		ct := make([]byte, el.EncryptOutputLen(len(payload)))
		n, _ := el.Encrypt(ct, payload, key)

		ct[n-1] ^= 0x01
		pt := make([]byte, el.DecryptOutputLen(n))
		if _, err := el.Decrypt(pt, ct[:n], key); err == nil {
			t.Fatalf("type %d accepted tampered ciphertext", typ)
		}
	}
}

func TestDecryptShortInputFails(t *testing.T) {
	for _, typ := range allTypes {
		el, _ := ByType(typ)
		if _, err := el.Decrypt(make([]byte, 64), []byte{1, 2, 3}, []byte("k")); err == nil {
			t.Fatalf("type %d accepted short ciphertext", typ)
		}
	}
}

func TestCreateKeyDeterministic(t *testing.T) {
	el, _ := ByType(TypeAES256)
	k1, err := el.CreateKey([]byte("material"))
	if err != nil {
		t.Fatalf("CreateKey: %v", err)
	}
	k2, _ := el.CreateKey([]byte("material"))
	if len(k1) != KeyLen {
		t.Fatalf("derived key length %d, want %d", len(k1), KeyLen)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatal("key derivation not deterministic")
	}
	k3, _ := el.CreateKey([]byte("other"))
	if bytes.Equal(k1, k3) {
		t.Fatal("distinct material produced identical keys")
	}
}

func TestByTypeUnknown(t *testing.T) {
	if _, err := ByType(0); err == nil {
		t.Fatal("type 0 should not resolve")
	}
	if _, err := ByType(9); err == nil {
		t.Fatal("type 9 should not resolve")
	}
}
