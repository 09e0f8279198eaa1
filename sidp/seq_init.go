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

// initRecordLen is the init record on the wire:
// sdev:u32, ddev:u32, sid:u32, conn_type:u16, big-endian.
const initRecordLen = 14

type initRecord struct {
	sdev     uint32
	ddev     uint32
	sid      uint32
	connType uint16
}

func (r *initRecord) marshal() []byte {
	buf := make([]byte, initRecordLen)
	binary.BigEndian.PutUint32(buf[0:4], r.sdev)
	binary.BigEndian.PutUint32(buf[4:8], r.ddev)
	binary.BigEndian.PutUint32(buf[8:12], r.sid)
	binary.BigEndian.PutUint16(buf[12:14], r.connType)
	return buf
}

func (r *initRecord) unmarshal(buf []byte) {
	r.sdev = binary.BigEndian.Uint32(buf[0:4])
	r.ddev = binary.BigEndian.Uint32(buf[4:8])
	r.sid = binary.BigEndian.Uint32(buf[8:12])
	r.connType = binary.BigEndian.Uint16(buf[12:14])
}

// InitUser runs the initiator side of the init sequence: announce the local
// device identifiers, session and connection type, then validate the host's
// echo for reciprocity. On success the connection is INITIATED.
func (c *Conn) InitUser() error {
	rec := initRecord{sdev: c.sdev, ddev: c.ddev, sid: c.sid, connType: uint16(c.ctype)}

	if err := c.seqSend(MsgTypeInit, rec.marshal()); err != nil {
		return err
	}

	body, err := c.seqRecv(MsgTypeInit, initRecordLen)
	if err != nil {
		return err
	}
	rec.unmarshal(body)

	if rec.sid != c.sid {
		return errors.Wrapf(ErrState, "init: session id %d, want %d", rec.sid, c.sid)
	}

	switch c.ctype {
	case ConnTypeNormal, ConnTypePersistent:
		// the echo must carry swapped device ids
		if c.sdev != rec.ddev || c.ddev != rec.sdev {
			return errors.Wrapf(ErrState, "init: device ids %d/%d not reciprocal to %d/%d",
				rec.sdev, rec.ddev, c.sdev, c.ddev)
		}
	case ConnTypeRouting:
		if c.sdev != rec.sdev || c.ddev != rec.ddev {
			return errors.Wrapf(ErrState, "init: routed device ids %d/%d, want %d/%d",
				rec.sdev, rec.ddev, c.sdev, c.ddev)
		}
	default:
		return errors.Wrapf(ErrState, "init: connection type %d", c.ctype)
	}

	bitops.Set(&c.statusFlags, StatusInitiated)
	return nil
}

// InitHost runs the responder side of the init sequence: adopt the
// initiator's session, type and device identifiers as the connection type
// dictates, then echo the record back for validation. On success the
// connection is INITIATED.
func (c *Conn) InitHost() error {
	body, err := c.seqRecv(MsgTypeInit, initRecordLen)
	if err != nil {
		return err
	}

	var rec initRecord
	rec.unmarshal(body)

	c.ctype = ConnType(rec.connType)
	c.sid = rec.sid

	switch c.ctype {
	case ConnTypeNormal, ConnTypePersistent:
		c.ddev = rec.sdev
	case ConnTypeRouting:
		c.sdev = rec.sdev
		c.ddev = rec.ddev
	default:
		return errors.Wrapf(ErrState, "init: connection type %d", rec.connType)
	}

	rec = initRecord{sdev: c.sdev, ddev: c.ddev, sid: c.sid, connType: uint16(c.ctype)}
	if err := c.seqSend(MsgTypeInit, rec.marshal()); err != nil {
		return err
	}

	bitops.Set(&c.statusFlags, StatusInitiated)
	return nil
}
