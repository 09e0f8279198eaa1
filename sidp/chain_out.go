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
	"github.com/pkg/errors"

	"github.com/ucodev/go-sidp/layer/compress"
	"github.com/ucodev/go-sidp/layer/encrypt"
	"github.com/ucodev/go-sidp/layer/session"
)

// chainOutDispatch runs the outgoing layer chain: compress and encrypt for
// data messages, session encapsulation and the description header for all,
// then a single exact write of the whole frame.
func (c *Conn) chainOutDispatch(pkt *Packet, opt *Options) (int, error) {
	msgSize := len(pkt.Msg)
	if msgSize > PktMsgMaxLen {
		return 0, errors.Wrapf(ErrFraming, "send: message size %d exceeds %d", msgSize, PktMsgMaxLen)
	}

	sl, err := session.ByType(opt.SessionType)
	if err != nil {
		return 0, errors.Wrapf(ErrFraming, "send: %v", err)
	}

	payload := pkt.Msg

	switch opt.MsgType {
	case MsgTypeData:
		cl, err := compress.ByType(opt.CompressType)
		if err != nil {
			return 0, errors.Wrapf(ErrFraming, "send: %v", err)
		}
		el, err := encrypt.ByType(opt.CipherType)
		if err != nil {
			return 0, errors.Wrapf(ErrFraming, "send: %v", err)
		}

		clData := make([]byte, cl.CompressOutputLen(msgSize))
		n, err := cl.Compress(clData, pkt.Msg)
		if err != nil {
			return 0, errors.Wrapf(ErrCodec, "send: compress: %v", err)
		}

		elData := make([]byte, el.EncryptOutputLen(n))
		n, err = el.Encrypt(elData, clData[:n], opt.Key)
		if err != nil {
			return 0, errors.Wrapf(ErrCodec, "send: encrypt: %v", err)
		}
		payload = elData[:n]

	case MsgTypeAuth, MsgTypeNegotiate, MsgTypeInit:
		// control messages travel in cleartext inside the session frame

	default:
		return 0, errors.Wrapf(ErrFraming, "send: unknown message type %d", opt.MsgType)
	}

	frame := make([]byte, dlHeaderLen+sl.EncapOutputLen(len(payload)))
	hdr := session.Header{SrcDev: pkt.SrcDev, DstDev: pkt.DstDev, SessionID: pkt.SessionID}
	n, err := sl.Encap(frame[dlHeaderLen:], payload, &hdr)
	if err != nil {
		return 0, errors.Wrapf(ErrFraming, "send: encap: %v", err)
	}

	dl := dlHeader{
		DefSize:      uint16(n),
		InfSize:      uint16(msgSize),
		SessionType:  opt.SessionType,
		CipherType:   opt.CipherType,
		CompressType: opt.CompressType,
		MsgType:      opt.MsgType,
	}
	dl.marshal(frame[:dlHeaderLen])

	if n+dlHeaderLen > PktMaxLen {
		return 0, errors.Wrapf(ErrFraming, "send: frame size %d exceeds %d", n+dlHeaderLen, PktMaxLen)
	}

	if err := c.writeFull(frame[:dlHeaderLen+n]); err != nil {
		return 0, err
	}
	return msgSize, nil
}
