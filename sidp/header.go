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

import "encoding/binary"

// dlHeaderLen is the size of the description header, the outermost 20 bytes
// of every wire packet.
const dlHeaderLen = 20

// dlHeader is the description layer: sizes and algorithm tags for the frame
// that follows.
//
// def_size and inf_size occupy 4-byte slots on the wire but carry 16-bit
// network-order values in the leading two bytes, the trailing two bytes
// zero. Peers depend on this layout; widening the values to full u32 would
// be a protocol break.
type dlHeader struct {
	DefSize      uint16
	InfSize      uint16
	SessionType  uint16
	CipherType   uint16
	CompressType uint16
	MsgType      uint16
}

func (h *dlHeader) marshal(buf []byte) {
	_ = buf[dlHeaderLen-1]
	binary.BigEndian.PutUint16(buf[0:2], h.DefSize)
	buf[2], buf[3] = 0, 0
	binary.BigEndian.PutUint16(buf[4:6], h.InfSize)
	buf[6], buf[7] = 0, 0
	binary.BigEndian.PutUint16(buf[8:10], h.SessionType)
	binary.BigEndian.PutUint16(buf[10:12], h.CipherType)
	binary.BigEndian.PutUint16(buf[12:14], h.CompressType)
	binary.BigEndian.PutUint16(buf[14:16], h.MsgType)
	binary.BigEndian.PutUint32(buf[16:20], 0)
}

func (h *dlHeader) unmarshal(buf []byte) {
	_ = buf[dlHeaderLen-1]
	h.DefSize = binary.BigEndian.Uint16(buf[0:2])
	h.InfSize = binary.BigEndian.Uint16(buf[4:6])
	h.SessionType = binary.BigEndian.Uint16(buf[8:10])
	h.CipherType = binary.BigEndian.Uint16(buf[10:12])
	h.CompressType = binary.BigEndian.Uint16(buf[12:14])
	h.MsgType = binary.BigEndian.Uint16(buf[14:16])
}
