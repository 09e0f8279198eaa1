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

// Package session implements the session-layer encapsulation codecs.
//
// An encapsulation wraps a payload with a layer header identifying source
// device, destination device and session. Codecs are registered by wire tag
// so that additional encapsulations can be added without touching callers.
package session

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Wire tags for the registered encapsulations.
const (
	TypeDefault uint16 = 1
)

// DefaultHeaderLen is the length of the DEFAULT session header on the wire:
// sdev:u32, ddev:u32, session_id:u32, reserved:u32, big-endian.
const DefaultHeaderLen = 16

// Header carries the session fields wrapped around a payload.
type Header struct {
	SrcDev    uint32
	DstDev    uint32
	SessionID uint32
}

// Encap is the session-layer codec contract.
//
// EncapOutputLen and DecapOutputLen are exact: the DEFAULT codec adds and
// removes precisely its header size.
type Encap interface {
	Init() error
	EncapOutputLen(n int) int
	DecapOutputLen(n int) int

	// Encap writes the layer header followed by src into dst and returns
	// the number of bytes produced. dst must hold EncapOutputLen(len(src)).
	Encap(dst, src []byte, hdr *Header) (int, error)

	// Decap parses the layer header from src into hdr and copies the
	// remaining payload to dst, returning the payload length.
	Decap(dst, src []byte, hdr *Header) (int, error)
}

var errUnknownType = errors.New("session: unknown encapsulation type")

// ByType resolves a registered encapsulation codec from its wire tag.
func ByType(t uint16) (Encap, error) {
	if t == TypeDefault {
		return defaultEncap{}, nil
	}
	return nil, errors.Wrapf(errUnknownType, "type %d", t)
}

type defaultEncap struct{}

func (defaultEncap) Init() error { return nil }

func (defaultEncap) EncapOutputLen(n int) int { return n + DefaultHeaderLen }

func (defaultEncap) DecapOutputLen(n int) int { return n - DefaultHeaderLen }

func (defaultEncap) Encap(dst, src []byte, hdr *Header) (int, error) {
	if len(dst) < len(src)+DefaultHeaderLen {
		return 0, errors.New("session: encap output buffer too small")
	}
	binary.BigEndian.PutUint32(dst[0:4], hdr.SrcDev)
	binary.BigEndian.PutUint32(dst[4:8], hdr.DstDev)
	binary.BigEndian.PutUint32(dst[8:12], hdr.SessionID)
	binary.BigEndian.PutUint32(dst[12:16], 0)
	copy(dst[DefaultHeaderLen:], src)
	return DefaultHeaderLen + len(src), nil
}

func (defaultEncap) Decap(dst, src []byte, hdr *Header) (int, error) {
	if len(src) < DefaultHeaderLen {
		return 0, errors.New("session: truncated session header")
	}
	hdr.SrcDev = binary.BigEndian.Uint32(src[0:4])
	hdr.DstDev = binary.BigEndian.Uint32(src[4:8])
	hdr.SessionID = binary.BigEndian.Uint32(src[8:12])
	n := len(src) - DefaultHeaderLen
	if len(dst) < n {
		return 0, errors.New("session: decap output buffer too small")
	}
	copy(dst, src[DefaultHeaderLen:])
	return n, nil
}
