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

// Package encrypt implements the encryption-layer codecs.
//
// Every backend derives a fixed 32-byte working key from the caller's key
// material and emits nonce || sealed with a fresh random nonce per message.
// Ciphertext is longer than plaintext by the nonce plus the authenticator;
// the bound is reported by EncryptOutputLen.
package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

// Wire tags for the registered ciphers.
const (
	TypeAES256    uint16 = 1
	TypeXSalsa20  uint16 = 2
	TypeChaCha20  uint16 = 3
	TypeXChaCha20 uint16 = 4
)

// SALT seeds the PBKDF2 key expansion of user key material.
const SALT = "go-sidp"

// KeyLen is the working key size every backend derives to.
const KeyLen = 32

// Cipher is the encryption-layer codec contract.
type Cipher interface {
	Init() error

	// CreateKey expands arbitrary key material into the backend's fixed
	// size working key.
	CreateKey(material []byte) ([]byte, error)

	EncryptOutputLen(n int) int
	DecryptOutputLen(n int) int

	// Encrypt seals src into dst using a key derived from material and
	// returns the ciphertext length. dst must hold EncryptOutputLen(len(src)).
	Encrypt(dst, src, material []byte) (int, error)

	// Decrypt opens src into dst and returns the plaintext length.
	Decrypt(dst, src, material []byte) (int, error)
}

var errUnknownType = errors.New("encrypt: unknown cipher type")

// ByType resolves a registered cipher from its wire tag.
func ByType(t uint16) (Cipher, error) {
	switch t {
	case TypeAES256:
		return aeadCipher{name: "aes-256-gcm", nonceSize: 12, new: newAESGCM}, nil
	case TypeXSalsa20:
		return xsalsa20Cipher{}, nil
	case TypeChaCha20:
		return aeadCipher{name: "chacha20-poly1305", nonceSize: chacha20poly1305.NonceSize, new: chacha20poly1305.New}, nil
	case TypeXChaCha20:
		return aeadCipher{name: "xchacha20-poly1305", nonceSize: chacha20poly1305.NonceSizeX, new: chacha20poly1305.NewX}, nil
	}
	return nil, errors.Wrapf(errUnknownType, "type %d", t)
}

// createKey expands user key material the way the pre-shared key is
// expanded for the transports: PBKDF2-SHA1, 4096 rounds, fixed salt.
func createKey(material []byte) []byte {
	return pbkdf2.Key(material, []byte(SALT), 4096, KeyLen, sha1.New)
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// aeadCipher adapts any nonce-prefixed AEAD construction to the layer
// contract. AES-256-GCM, ChaCha20-Poly1305 and XChaCha20-Poly1305 share it.
type aeadCipher struct {
	name      string
	nonceSize int
	new       func(key []byte) (cipher.AEAD, error)
}

func (c aeadCipher) Init() error { return nil }

func (c aeadCipher) CreateKey(material []byte) ([]byte, error) {
	return createKey(material), nil
}

func (c aeadCipher) EncryptOutputLen(n int) int {
	return n + c.nonceSize + 16
}

func (c aeadCipher) DecryptOutputLen(n int) int {
	if n < c.nonceSize+16 {
		return 0
	}
	return n - c.nonceSize - 16
}

func (c aeadCipher) Encrypt(dst, src, material []byte) (int, error) {
	if len(dst) < c.EncryptOutputLen(len(src)) {
		return 0, errors.Errorf("encrypt: %s output buffer too small", c.name)
	}
	aead, err := c.new(createKey(material))
	if err != nil {
		return 0, errors.Wrapf(err, "encrypt: %s", c.name)
	}
	nonce := dst[:c.nonceSize]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return 0, errors.Wrapf(err, "encrypt: %s nonce", c.name)
	}
	sealed := aead.Seal(dst[c.nonceSize:c.nonceSize], nonce, src, nil)
	return c.nonceSize + len(sealed), nil
}

func (c aeadCipher) Decrypt(dst, src, material []byte) (int, error) {
	if len(src) < c.nonceSize+16 {
		return 0, errors.Errorf("encrypt: %s ciphertext too short", c.name)
	}
	if len(dst) < c.DecryptOutputLen(len(src)) {
		return 0, errors.Errorf("encrypt: %s output buffer too small", c.name)
	}
	aead, err := c.new(createKey(material))
	if err != nil {
		return 0, errors.Wrapf(err, "encrypt: %s", c.name)
	}
	plain, err := aead.Open(dst[:0], src[:c.nonceSize], src[c.nonceSize:], nil)
	if err != nil {
		return 0, errors.Wrapf(err, "encrypt: %s open", c.name)
	}
	return len(plain), nil
}

// XSalsa20-Poly1305 via NaCl secretbox.
type xsalsa20Cipher struct{}

const xsalsa20NonceSize = 24

func (xsalsa20Cipher) Init() error { return nil }

func (xsalsa20Cipher) CreateKey(material []byte) ([]byte, error) {
	return createKey(material), nil
}

func (xsalsa20Cipher) EncryptOutputLen(n int) int {
	return n + xsalsa20NonceSize + secretbox.Overhead
}

func (xsalsa20Cipher) DecryptOutputLen(n int) int {
	if n < xsalsa20NonceSize+secretbox.Overhead {
		return 0
	}
	return n - xsalsa20NonceSize - secretbox.Overhead
}

func (c xsalsa20Cipher) Encrypt(dst, src, material []byte) (int, error) {
	if len(dst) < c.EncryptOutputLen(len(src)) {
		return 0, errors.New("encrypt: xsalsa20 output buffer too small")
	}
	var key [KeyLen]byte
	copy(key[:], createKey(material))

	var nonce [xsalsa20NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return 0, errors.Wrap(err, "encrypt: xsalsa20 nonce")
	}
	copy(dst[:xsalsa20NonceSize], nonce[:])
	sealed := secretbox.Seal(dst[xsalsa20NonceSize:xsalsa20NonceSize], src, &nonce, &key)
	return xsalsa20NonceSize + len(sealed), nil
}

func (c xsalsa20Cipher) Decrypt(dst, src, material []byte) (int, error) {
	if len(src) < xsalsa20NonceSize+secretbox.Overhead {
		return 0, errors.New("encrypt: xsalsa20 ciphertext too short")
	}
	if len(dst) < c.DecryptOutputLen(len(src)) {
		return 0, errors.New("encrypt: xsalsa20 output buffer too small")
	}
	var key [KeyLen]byte
	copy(key[:], createKey(material))

	var nonce [xsalsa20NonceSize]byte
	copy(nonce[:], src[:xsalsa20NonceSize])
	plain, ok := secretbox.Open(dst[:0], src[xsalsa20NonceSize:], &nonce, &key)
	if !ok {
		return 0, errors.New("encrypt: xsalsa20 authentication failed")
	}
	return len(plain), nil
}
