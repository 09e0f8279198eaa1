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

// Package sidp implements the Secure Inter-Device Protocol: a point-to-point
// session protocol that turns a reliable byte stream into a mutually
// authenticated, algorithm-negotiated, compressed, encrypted message channel.
//
// A connection walks four phases in strict order — Init, Authenticate,
// Negotiate, Data — each gated on the status bits set by the previous one.
// On the wire every message is framed by a description header, a session
// header, and (for data) the negotiated encryption and compression layers.
//
// A Conn is not safe for concurrent use; run one connection per goroutine.
package sidp

import (
	"io"
	"time"

	"github.com/ucodev/go-sidp/bitops"
)

// Packet bounds.
const (
	// PktMaxLen is the maximum total packet length on the wire.
	PktMaxLen = 65535
	// PktHdrsMaxLen is the maximum combined length of all layer headers.
	PktHdrsMaxLen = 1024
	// PktLayerMaxPadLen is the maximum expansion any single layer may add.
	PktLayerMaxPadLen = 128
	// PktMsgMaxLen is the maximum message payload length.
	PktMsgMaxLen = PktMaxLen - PktHdrsMaxLen - PktLayerMaxPadLen

	// KeyMaxLen caps the connection key material.
	KeyMaxLen = 32
	// UserMaxLen caps the connection username.
	UserMaxLen = 128
)

// Message types carried in the description header.
const (
	MsgTypeData uint16 = iota
	MsgTypeAuth
	MsgTypeNegotiate
	MsgTypeInit
)

// Support/negotiate flag bit positions. The same positions are used in the
// support bitmap (algorithms offered) and the negotiate bitmap (algorithms
// agreed).
const (
	SupportCipherAES256 uint = iota
	SupportCipherXSalsa20
	SupportCipherChaCha20
	SupportCipherXChaCha20
	SupportCompressLZO
	SupportCompressZlib
	SupportCompressSnappy
	SupportEncapDefault
)

// Status flag bit positions.
const (
	StatusInitiated uint = iota
	StatusNegotiated
	StatusAuthenticated
)

// ConnType tags the connection role agreed during the init sequence.
type ConnType uint16

const (
	ConnTypeNone ConnType = iota
	ConnTypeNormal
	ConnTypeRouting
	ConnTypePersistent
)

// Conn is the process-local state of one endpoint of one connection.
type Conn struct {
	rw io.ReadWriteCloser

	sdev uint32
	ddev uint32
	sid  uint32

	user string
	key  []byte

	supportFlags   uint32
	negotiateFlags uint32
	statusFlags    uint32

	ctype ConnType

	bytesIn  uint64
	bytesOut uint64

	lastRead  time.Time
	lastWrite time.Time
}

// NewConn wraps an established reliable stream into a connection in the
// CREATED state. The stream must be connected, blocking and ordered; the
// caller keeps ownership until Close.
func NewConn(rw io.ReadWriteCloser, sdev, ddev, sid uint32, ctype ConnType) *Conn {
	return &Conn{
		rw:    rw,
		sdev:  sdev,
		ddev:  ddev,
		sid:   sid,
		ctype: ctype,
	}
}

// SetKey stores raw key material on the connection. The bytes are stored
// verbatim (truncated to KeyMaxLen) — this is not a KDF; the encryption
// layer derives its fixed-size working key from whatever is stored here.
func (c *Conn) SetKey(key []byte) {
	if len(key) > KeyMaxLen {
		key = key[:KeyMaxLen]
	}
	c.key = append(c.key[:0], key...)
}

// SetSupport sets a single support flag.
func (c *Conn) SetSupport(flag uint) {
	bitops.Set(&c.supportFlags, flag)
}

// SetSupportFlags replaces the whole support bitmap.
func (c *Conn) SetSupportFlags(flags uint32) {
	c.supportFlags = flags
}

// Close releases the underlying stream and zeroes the connection. The type
// becomes ConnTypeNone and no sequence may be used afterwards; a repeated
// Close returns whatever the underlying close returns.
func (c *Conn) Close() error {
	err := c.rw.Close()

	c.sdev, c.ddev, c.sid = 0, 0, 0
	c.user = ""
	for i := range c.key {
		c.key[i] = 0
	}
	c.key = nil
	c.supportFlags, c.negotiateFlags, c.statusFlags = 0, 0, 0
	c.bytesIn, c.bytesOut = 0, 0
	c.lastRead, c.lastWrite = time.Time{}, time.Time{}
	c.ctype = ConnTypeNone

	return err
}

// Initiated reports whether the init sequence completed.
func (c *Conn) Initiated() bool {
	return bitops.Test(c.statusFlags, StatusInitiated)
}

// Authenticated reports whether the authentication sequence completed.
func (c *Conn) Authenticated() bool {
	return bitops.Test(c.statusFlags, StatusAuthenticated)
}

// Negotiated reports whether the negotiation sequence completed.
func (c *Conn) Negotiated() bool {
	return bitops.Test(c.statusFlags, StatusNegotiated)
}

// Sdev returns the local device identifier.
func (c *Conn) Sdev() uint32 { return c.sdev }

// Ddev returns the peer device identifier.
func (c *Conn) Ddev() uint32 { return c.ddev }

// Sid returns the session identifier.
func (c *Conn) Sid() uint32 { return c.sid }

// Type returns the connection type.
func (c *Conn) Type() ConnType { return c.ctype }

// User returns the username bound during authentication.
func (c *Conn) User() string { return c.user }

// SupportFlags returns the support bitmap.
func (c *Conn) SupportFlags() uint32 { return c.supportFlags }

// NegotiateFlags returns the negotiate bitmap.
func (c *Conn) NegotiateFlags() uint32 { return c.negotiateFlags }

// ReadBytes returns the total bytes received since the connection was created.
func (c *Conn) ReadBytes() uint64 { return c.bytesIn }

// WriteBytes returns the total bytes sent since the connection was created.
func (c *Conn) WriteBytes() uint64 { return c.bytesOut }

// LastRead returns the time of the last successful read.
func (c *Conn) LastRead() time.Time { return c.lastRead }

// LastWrite returns the time of the last successful write.
func (c *Conn) LastWrite() time.Time { return c.lastWrite }

func (c *Conn) setUser(user string) {
	if len(user) > UserMaxLen {
		user = user[:UserMaxLen]
	}
	c.user = user
}
