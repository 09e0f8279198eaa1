package srp

import (
	"bytes"
	"math/big"
	"testing"
)

func TestFullExchange(t *testing.T) {
	const username = "alice"
	password := []byte("password123")

	salt, verifier, err := CreateSaltedVerificationKey(username, password)
	if err != nil {
		t.Fatalf("CreateSaltedVerificationKey: %v", err)
	}
	if len(salt) != SaltLen {
		t.Fatalf("salt length %d, want %d", len(salt), SaltLen)
	}

	usr, err := NewUser(username, password)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	ident, A := usr.StartAuthentication()
	if ident != username || len(A) == 0 {
		t.Fatalf("StartAuthentication: %q, %d bytes", ident, len(A))
	}

	ver, B, err := NewVerifier(username, salt, verifier, A)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if len(B) == 0 {
		t.Fatal("empty B")
	}

	M, err := usr.ProcessChallenge(salt, B)
	if err != nil {
		t.Fatalf("ProcessChallenge: %v", err)
	}

	hamk := ver.VerifySession(M)
	if hamk == nil {
		t.Fatal("verifier rejected valid proof")
	}
	if !ver.IsAuthenticated() {
		t.Fatal("verifier not authenticated after valid proof")
	}

	if !usr.VerifySession(hamk) || !usr.IsAuthenticated() {
		t.Fatal("user rejected valid HAMK")
	}

	if !bytes.Equal(usr.SessionKey(), ver.SessionKey()) {
		t.Fatal("session keys disagree")
	}
	if len(usr.SessionKey()) != 20 {
		t.Fatalf("session key length %d, want 20 (SHA-1)", len(usr.SessionKey()))
	}
}

func TestWrongPasswordRejected(t *testing.T) {
	const username = "bob"
	salt, verifier, err := CreateSaltedVerificationKey(username, []byte("right"))
	if err != nil {
		t.Fatal(err)
	}

	usr, err := NewUser(username, []byte("wrong"))
	if err != nil {
		t.Fatal(err)
	}
	_, A := usr.StartAuthentication()

	ver, B, err := NewVerifier(username, salt, verifier, A)
	if err != nil {
		t.Fatal(err)
	}

	M, err := usr.ProcessChallenge(salt, B)
	if err != nil {
		t.Fatalf("ProcessChallenge: %v", err)
	}
	if hamk := ver.VerifySession(M); hamk != nil {
		t.Fatal("verifier accepted proof built from wrong password")
	}
	if ver.IsAuthenticated() {
		t.Fatal("verifier authenticated after bad proof")
	}
}

func TestUserRejectsBadHAMK(t *testing.T) {
	const username = "carol"
	password := []byte("pw")
	salt, verifier, _ := CreateSaltedVerificationKey(username, password)

	usr, _ := NewUser(username, password)
	_, A := usr.StartAuthentication()
	_, B, _ := NewVerifier(username, salt, verifier, A)

	if _, err := usr.ProcessChallenge(salt, B); err != nil {
		t.Fatal(err)
	}
	if usr.VerifySession(make([]byte, 20)) {
		t.Fatal("user accepted forged HAMK")
	}
	if usr.IsAuthenticated() {
		t.Fatal("user authenticated after forged HAMK")
	}
}

func TestSafetyChecks(t *testing.T) {
	const username = "dave"
	password := []byte("pw")
	salt, verifier, _ := CreateSaltedVerificationKey(username, password)

	// A ≡ 0 (mod N) must be refused by the verifier
	if _, _, err := NewVerifier(username, salt, verifier, groupN.Bytes()); err == nil {
		t.Fatal("verifier accepted A = N")
	}
	if _, _, err := NewVerifier(username, salt, verifier, nil); err == nil {
		t.Fatal("verifier accepted A = 0")
	}

	// B ≡ 0 (mod N) must be refused by the user
	usr, _ := NewUser(username, password)
	if _, err := usr.ProcessChallenge(salt, big.NewInt(0).Bytes()); err == nil {
		t.Fatal("user accepted B = 0")
	}
	if _, err := usr.ProcessChallenge(salt, groupN.Bytes()); err == nil {
		t.Fatal("user accepted B = N")
	}
}
