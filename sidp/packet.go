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

package sidp

import "github.com/pkg/errors"

// Packet is one logical message with its addressing.
type Packet struct {
	SrcDev    uint32
	DstDev    uint32
	SessionID uint32

	// Msg is owned by the receiver after RecvPacket.
	Msg []byte
}

// Options selects the per-packet layer algorithms. On send every field is
// an input; on receive the types are populated from the description header
// and only Key is consumed.
type Options struct {
	SessionType  uint16
	CipherType   uint16
	CompressType uint16
	MsgType      uint16

	Key []byte
}

// SendPacket frames and dispatches one packet, returning the original
// message size.
func (c *Conn) SendPacket(pkt *Packet, opt *Options) (int, error) {
	return c.chainOutDispatch(pkt, opt)
}

// RecvPacket receives one packet, filling pkt and opt from the wire. The
// returned length is the decoded message length; pkt.Msg belongs to the
// caller.
func (c *Conn) RecvPacket(pkt *Packet, opt *Options) (int, error) {
	return c.chainInReceive(pkt, opt)
}

// RawSend writes a pre-framed packet verbatim.
func (c *Conn) RawSend(buf []byte) (int, error) {
	if err := c.writeFull(buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// RawRecv reads one whole packet — description header plus body — without
// running any decode layer. Used for opaque forwarding; the body bound is
// the same as the framed receive path's.
func (c *Conn) RawRecv() ([]byte, error) {
	hdr := make([]byte, dlHeaderLen)
	if err := c.readFull(hdr); err != nil {
		return nil, err
	}

	var dl dlHeader
	dl.unmarshal(hdr)

	defSize := int(dl.DefSize)
	if defSize+PktHdrsMaxLen > PktMaxLen {
		return nil, errors.Wrapf(ErrFraming, "raw recv: deflated size %d out of bounds", defSize)
	}

	frame := make([]byte, dlHeaderLen+defSize)
	copy(frame, hdr)
	if err := c.readFull(frame[dlHeaderLen:]); err != nil {
		return nil, err
	}
	return frame, nil
}
