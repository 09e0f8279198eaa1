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

	"github.com/ucodev/go-sidp/layer/session"
)

// seqSend dispatches one cleartext control packet carrying a sequence
// record through the default encapsulation.
func (c *Conn) seqSend(msgType uint16, body []byte) error {
	opt := Options{SessionType: session.TypeDefault, MsgType: msgType}
	pkt := Packet{SrcDev: c.sdev, DstDev: c.ddev, SessionID: c.sid, Msg: body}

	_, err := c.SendPacket(&pkt, &opt)
	return err
}

// seqRecv receives one control packet, requiring the expected message type
// and record length.
func (c *Conn) seqRecv(msgType uint16, wantLen int) ([]byte, error) {
	var opt Options
	var pkt Packet

	if _, err := c.RecvPacket(&pkt, &opt); err != nil {
		return nil, err
	}
	if opt.MsgType != msgType {
		return nil, errors.Wrapf(ErrFraming, "sequence: message type %d, want %d", opt.MsgType, msgType)
	}
	if len(pkt.Msg) != wantLen {
		return nil, errors.Wrapf(ErrFraming, "sequence: record length %d, want %d", len(pkt.Msg), wantLen)
	}
	return pkt.Msg, nil
}
