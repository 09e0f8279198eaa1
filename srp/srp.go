// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package srp implements the SRP-6a password-authenticated key exchange
// with SHA-1 hashing over the RFC 5054 2048-bit group.
//
// The user proves knowledge of the password with M after receiving the
// host's salt and public value B; the host proves possession of the
// verifier with HAMK. Both sides end up with the same session key
// K = H(S). The four byte arrays (A, s/B, M, HAMK) map one-to-one onto
// the authentication sequence packets.
package srp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"math/big"

	"github.com/pkg/errors"
)

// RFC 5054 appendix A, 2048-bit group.
const hexN = "AC6BDB41324A9A9BF166DE5E1389582FAF72B6651987EE07FC3192943DB56050" +
	"A37329CBB4A099ED8193E0757767A13DD52312AB4B03310DCD7F48A9DA04FD50" +
	"E8083969EDB767B0CF6095179A163AB3661A05FBD5FAAAE82918A9962F0B93B8" +
	"55F97993EC975EEAA80D740ADBF4FF747359D041D5C33EA71D281E446B14773B" +
	"CA97B43A23FB801676BD207A436C6481F1D2B9078717461A5B9D32E688F87748" +
	"544523B524B0D57D5EA77A2775D2ECFA032CFBDBF52FB3786160279004E57AE6" +
	"AF874E7303CE53299CCC041C7BC308D82A5698F3A8D0C38271AE35F8E9DBFBB6" +
	"94B5C803D89F7AE435DE236D525F54759B65E372FCD68EF20FA7111F9E4AFF73"

var (
	groupN, _ = new(big.Int).SetString(hexN, 16)
	groupG    = big.NewInt(2)

	// k = H(N || g), fixed for the group
	multiplierK = hashToInt(groupN.Bytes(), groupG.Bytes())
)

// SaltLen is the number of random salt bytes generated for a verifier.
const SaltLen = 16

var (
	// ErrSafetyCheck is returned when an SRP-6a safety check fails:
	// a public value is a multiple of N, or the scrambler u is zero.
	ErrSafetyCheck = errors.New("srp: SRP-6a safety check violated")
)

func hashBytes(parts ...[]byte) []byte {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func hashToInt(parts ...[]byte) *big.Int {
	return new(big.Int).SetBytes(hashBytes(parts...))
}

// x = H(s || H(username || ":" || password))
func credentialsHash(salt []byte, username string, password []byte) *big.Int {
	inner := hashBytes([]byte(username), []byte(":"), password)
	return hashToInt(salt, inner)
}

// M = H( H(N) xor H(g) || H(username) || s || A || B || K )
func proofM(username string, salt []byte, A, B *big.Int, key []byte) []byte {
	hn := hashBytes(groupN.Bytes())
	hg := hashBytes(groupG.Bytes())
	for i := range hn {
		hn[i] ^= hg[i]
	}
	return hashBytes(hn, hashBytes([]byte(username)), salt, A.Bytes(), B.Bytes(), key)
}

func randomScalar() (*big.Int, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, "srp: random scalar")
	}
	n := new(big.Int).SetBytes(buf)
	if n.Sign() == 0 {
		n.SetInt64(1)
	}
	return n, nil
}

// CreateSaltedVerificationKey generates a fresh salt and the password
// verifier v = g^x the host stores in place of the password.
func CreateSaltedVerificationKey(username string, password []byte) (salt, verifier []byte, err error) {
	salt = make([]byte, SaltLen)
	if _, err = rand.Read(salt); err != nil {
		return nil, nil, errors.Wrap(err, "srp: salt")
	}
	x := credentialsHash(salt, username, password)
	v := new(big.Int).Exp(groupG, x, groupN)
	return salt, v.Bytes(), nil
}

// User is the initiator side of the exchange.
type User struct {
	username string
	password []byte

	a, bigA *big.Int

	key           []byte
	proof         []byte
	expectedHAMK  []byte
	authenticated bool
}

// NewUser creates the initiator state and its ephemeral public value A.
func NewUser(username string, password []byte) (*User, error) {
	a, err := randomScalar()
	if err != nil {
		return nil, err
	}
	return &User{
		username: username,
		password: append([]byte(nil), password...),
		a:        a,
		bigA:     new(big.Int).Exp(groupG, a, groupN),
	}, nil
}

// StartAuthentication returns the username and A for the first packet.
func (u *User) StartAuthentication() (string, []byte) {
	return u.username, u.bigA.Bytes()
}

// ProcessChallenge consumes the host's salt and B and produces the client
// proof M. It fails with ErrSafetyCheck when B ≡ 0 (mod N) or the
// scrambler u is zero.
func (u *User) ProcessChallenge(salt, bBytes []byte) ([]byte, error) {
	B := new(big.Int).SetBytes(bBytes)
	if new(big.Int).Mod(B, groupN).Sign() == 0 {
		return nil, ErrSafetyCheck
	}

	scrambler := hashToInt(u.bigA.Bytes(), B.Bytes())
	if scrambler.Sign() == 0 {
		return nil, ErrSafetyCheck
	}

	x := credentialsHash(salt, u.username, u.password)

	// S = (B - k*g^x) ^ (a + u*x) mod N
	gx := new(big.Int).Exp(groupG, x, groupN)
	base := new(big.Int).Mul(multiplierK, gx)
	base.Sub(B, base)
	base.Mod(base, groupN)

	exp := new(big.Int).Mul(scrambler, x)
	exp.Add(exp, u.a)

	S := new(big.Int).Exp(base, exp, groupN)
	u.key = hashBytes(S.Bytes())
	u.proof = proofM(u.username, salt, u.bigA, B, u.key)
	u.expectedHAMK = hashBytes(u.bigA.Bytes(), u.proof, u.key)
	return u.proof, nil
}

// VerifySession checks the host's proof HAMK. On success the user is
// authenticated.
func (u *User) VerifySession(hamk []byte) bool {
	if u.expectedHAMK == nil || !hmac.Equal(hamk, u.expectedHAMK) {
		return false
	}
	u.authenticated = true
	return true
}

// IsAuthenticated reports whether the host proof has been verified.
func (u *User) IsAuthenticated() bool { return u.authenticated }

// SessionKey returns K = H(S), valid after ProcessChallenge.
func (u *User) SessionKey() []byte { return u.key }

// Verifier is the responder side of the exchange.
type Verifier struct {
	username string

	key           []byte
	expectedM     []byte
	hamk          []byte
	authenticated bool
}

// NewVerifier consumes the user's A together with the stored salt and
// password verifier, and produces the challenge value B. It fails with
// ErrSafetyCheck when A ≡ 0 (mod N).
func NewVerifier(username string, salt, verifier, aBytes []byte) (*Verifier, []byte, error) {
	A := new(big.Int).SetBytes(aBytes)
	if new(big.Int).Mod(A, groupN).Sign() == 0 {
		return nil, nil, ErrSafetyCheck
	}

	v := new(big.Int).SetBytes(verifier)

	b, err := randomScalar()
	if err != nil {
		return nil, nil, err
	}

	// B = k*v + g^b mod N
	B := new(big.Int).Mul(multiplierK, v)
	B.Add(B, new(big.Int).Exp(groupG, b, groupN))
	B.Mod(B, groupN)

	scrambler := hashToInt(A.Bytes(), B.Bytes())

	// S = (A * v^u) ^ b mod N
	S := new(big.Int).Exp(v, scrambler, groupN)
	S.Mul(S, A)
	S.Mod(S, groupN)
	S.Exp(S, b, groupN)

	ver := &Verifier{username: username, key: hashBytes(S.Bytes())}
	ver.expectedM = proofM(username, salt, A, B, ver.key)
	ver.hamk = hashBytes(A.Bytes(), ver.expectedM, ver.key)
	return ver, B.Bytes(), nil
}

// VerifySession checks the user's proof M; on success it returns HAMK for
// the final packet, otherwise nil.
func (v *Verifier) VerifySession(m []byte) []byte {
	if !hmac.Equal(m, v.expectedM) {
		return nil
	}
	v.authenticated = true
	return v.hamk
}

// IsAuthenticated reports whether the user proof has been verified.
func (v *Verifier) IsAuthenticated() bool { return v.authenticated }

// SessionKey returns K = H(S).
func (v *Verifier) SessionKey() []byte { return v.key }
