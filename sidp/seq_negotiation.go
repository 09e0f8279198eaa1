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

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ucodev/go-sidp/bitops"
)

// negRecordLen is the negotiation record on the wire: flags:u32 big-endian.
const negRecordLen = 4

// selectNegotiate picks one algorithm per family from the intersected
// support flags. The ladders are fixed for interoperability: compressor
// LZO > snappy > zlib; cipher XSalsa20 > ChaCha20 > XChaCha20 > AES-256;
// encapsulation DEFAULT only.
func (c *Conn) selectNegotiate(flags uint32) error {
	switch {
	case bitops.Test(flags, SupportCompressLZO):
		bitops.Set(&c.negotiateFlags, SupportCompressLZO)
	case bitops.Test(flags, SupportCompressSnappy):
		bitops.Set(&c.negotiateFlags, SupportCompressSnappy)
	case bitops.Test(flags, SupportCompressZlib):
		bitops.Set(&c.negotiateFlags, SupportCompressZlib)
	default:
		return errors.Wrap(ErrState, "negotiation: no common compressor")
	}

	switch {
	case bitops.Test(flags, SupportCipherXSalsa20):
		bitops.Set(&c.negotiateFlags, SupportCipherXSalsa20)
	case bitops.Test(flags, SupportCipherChaCha20):
		bitops.Set(&c.negotiateFlags, SupportCipherChaCha20)
	case bitops.Test(flags, SupportCipherXChaCha20):
		bitops.Set(&c.negotiateFlags, SupportCipherXChaCha20)
	case bitops.Test(flags, SupportCipherAES256):
		bitops.Set(&c.negotiateFlags, SupportCipherAES256)
	default:
		return errors.Wrap(ErrState, "negotiation: no common cipher")
	}

	if !bitops.Test(flags, SupportEncapDefault) {
		return errors.Wrap(ErrState, "negotiation: no common encapsulation")
	}
	bitops.Set(&c.negotiateFlags, SupportEncapDefault)

	bitops.Set(&c.statusFlags, StatusNegotiated)
	return nil
}

func (c *Conn) checkNegotiationPreconditions() error {
	if !bitops.Test(c.statusFlags, StatusInitiated) {
		return errors.Wrap(ErrState, "negotiation: connection not initiated")
	}
	if !bitops.Test(c.statusFlags, StatusAuthenticated) {
		return errors.Wrap(ErrState, "negotiation: connection not authenticated")
	}
	return nil
}

// NegotiateUser runs the initiator side of the negotiation sequence: offer
// the local support flags, receive the intersection computed by the host,
// and commit one algorithm per family.
func (c *Conn) NegotiateUser() error {
	if err := c.checkNegotiationPreconditions(); err != nil {
		return err
	}

	body := make([]byte, negRecordLen)
	binary.BigEndian.PutUint32(body, c.supportFlags)
	if err := c.seqSend(MsgTypeNegotiate, body); err != nil {
		return err
	}

	body, err := c.seqRecv(MsgTypeNegotiate, negRecordLen)
	if err != nil {
		return err
	}

	return c.selectNegotiate(binary.BigEndian.Uint32(body))
}

// NegotiateHost runs the responder side: receive the peer's support flags,
// answer with the intersection against the local ones, and commit the same
// selection.
func (c *Conn) NegotiateHost() error {
	if err := c.checkNegotiationPreconditions(); err != nil {
		return err
	}

	body, err := c.seqRecv(MsgTypeNegotiate, negRecordLen)
	if err != nil {
		return err
	}

	flags := binary.BigEndian.Uint32(body) & c.supportFlags

	binary.BigEndian.PutUint32(body, flags)
	if err := c.seqSend(MsgTypeNegotiate, body); err != nil {
		return err
	}

	return c.selectNegotiate(flags)
}
