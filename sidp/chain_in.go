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

// chainInReceive runs the incoming layer chain: read and validate the
// description header before touching the body, then session decapsulation
// and — for data messages — decryption and decompression into a fresh
// buffer owned by the caller.
func (c *Conn) chainInReceive(pkt *Packet, opt *Options) (int, error) {
	hdr := make([]byte, dlHeaderLen)
	if err := c.readFull(hdr); err != nil {
		return 0, err
	}

	var dl dlHeader
	dl.unmarshal(hdr)

	opt.SessionType = dl.SessionType
	opt.CipherType = dl.CipherType
	opt.CompressType = dl.CompressType
	opt.MsgType = dl.MsgType

	infSize := int(dl.InfSize)
	defSize := int(dl.DefSize)

	if infSize > PktMsgMaxLen || defSize+PktHdrsMaxLen > PktMaxLen {
		return 0, errors.Wrapf(ErrFraming, "recv: sizes inf=%d def=%d out of bounds", infSize, defSize)
	}

	sl, err := session.ByType(opt.SessionType)
	if err != nil {
		return 0, errors.Wrapf(ErrFraming, "recv: %v", err)
	}

	var cl compress.Compressor
	var el encrypt.Cipher
	switch opt.MsgType {
	case MsgTypeData:
		if cl, err = compress.ByType(opt.CompressType); err != nil {
			return 0, errors.Wrapf(ErrFraming, "recv: %v", err)
		}
		if el, err = encrypt.ByType(opt.CipherType); err != nil {
			return 0, errors.Wrapf(ErrFraming, "recv: %v", err)
		}
	case MsgTypeAuth, MsgTypeNegotiate, MsgTypeInit:
	default:
		return 0, errors.Wrapf(ErrFraming, "recv: unknown message type %d", opt.MsgType)
	}

	decapLen := sl.DecapOutputLen(defSize)
	if decapLen < 0 {
		return 0, errors.Wrapf(ErrFraming, "recv: deflated size %d shorter than session header", defSize)
	}

	slData := make([]byte, defSize)
	if err := c.readFull(slData); err != nil {
		return 0, err
	}

	var shdr session.Header
	elData := make([]byte, decapLen)
	n, err := sl.Decap(elData, slData, &shdr)
	if err != nil {
		return 0, errors.Wrapf(ErrFraming, "recv: decap: %v", err)
	}

	pkt.SrcDev = shdr.SrcDev
	pkt.DstDev = shdr.DstDev
	pkt.SessionID = shdr.SessionID

	if opt.MsgType != MsgTypeData {
		pkt.Msg = elData[:n]
		return n, nil
	}

	clData := make([]byte, el.DecryptOutputLen(n))
	n, err = el.Decrypt(clData, elData[:n], opt.Key)
	if err != nil {
		return 0, errors.Wrapf(ErrCodec, "recv: decrypt: %v", err)
	}

	msg := make([]byte, infSize)
	n, err = cl.Decompress(msg, clData[:n])
	if err != nil {
		return 0, errors.Wrapf(ErrCodec, "recv: decompress: %v", err)
	}
	if n != infSize {
		return 0, errors.Wrapf(ErrCodec, "recv: inflated %d bytes, header says %d", n, infSize)
	}

	pkt.Msg = msg
	return n, nil
}
