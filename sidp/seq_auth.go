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
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ucodev/go-sidp/bitops"
	"github.com/ucodev/go-sidp/srp"
)

// SRP exchange record: one fixed layout large enough for the longest
// message of the four-step ping-pong. Unused slots ride along zeroed.
const (
	srpUserSlot = UserMaxLen + 1
	srpASlot    = 512
	srpSaltSlot = 16
	srpBSlot    = 512
	srpMSlot    = 32
	srpHAMKSlot = 32

	srpRecordLen = srpUserSlot + srpASlot + srpSaltSlot + srpBSlot +
		srpMSlot + srpHAMKSlot + 5*2
)

type srpRecord struct {
	username string
	A        []byte
	salt     []byte
	B        []byte
	M        []byte
	HAMK     []byte
}

func putSlot(buf []byte, off, slot int, data []byte) int {
	if len(data) > slot {
		data = data[:slot]
	}
	copy(buf[off:off+slot], data)
	return len(data)
}

func (r *srpRecord) marshal() []byte {
	buf := make([]byte, srpRecordLen)

	off := 0
	putSlot(buf, off, srpUserSlot, []byte(r.username))
	off += srpUserSlot
	lenA := putSlot(buf, off, srpASlot, r.A)
	off += srpASlot
	lenS := putSlot(buf, off, srpSaltSlot, r.salt)
	off += srpSaltSlot
	lenB := putSlot(buf, off, srpBSlot, r.B)
	off += srpBSlot
	lenM := putSlot(buf, off, srpMSlot, r.M)
	off += srpMSlot
	lenHAMK := putSlot(buf, off, srpHAMKSlot, r.HAMK)
	off += srpHAMKSlot

	binary.BigEndian.PutUint16(buf[off:], uint16(lenA))
	binary.BigEndian.PutUint16(buf[off+2:], uint16(lenS))
	binary.BigEndian.PutUint16(buf[off+4:], uint16(lenB))
	binary.BigEndian.PutUint16(buf[off+6:], uint16(lenM))
	binary.BigEndian.PutUint16(buf[off+8:], uint16(lenHAMK))
	return buf
}

func takeSlot(buf []byte, off, slot, n int) []byte {
	if n > slot {
		n = slot
	}
	return append([]byte(nil), buf[off:off+n]...)
}

func (r *srpRecord) unmarshal(buf []byte) {
	lens := buf[srpRecordLen-10:]
	lenA := int(binary.BigEndian.Uint16(lens[0:2]))
	lenS := int(binary.BigEndian.Uint16(lens[2:4]))
	lenB := int(binary.BigEndian.Uint16(lens[4:6]))
	lenM := int(binary.BigEndian.Uint16(lens[6:8]))
	lenHAMK := int(binary.BigEndian.Uint16(lens[8:10]))

	off := 0
	user := buf[off : off+srpUserSlot]
	if i := bytes.IndexByte(user, 0); i >= 0 {
		user = user[:i]
	}
	r.username = string(user)
	off += srpUserSlot
	r.A = takeSlot(buf, off, srpASlot, lenA)
	off += srpASlot
	r.salt = takeSlot(buf, off, srpSaltSlot, lenS)
	off += srpSaltSlot
	r.B = takeSlot(buf, off, srpBSlot, lenB)
	off += srpBSlot
	r.M = takeSlot(buf, off, srpMSlot, lenM)
	off += srpMSlot
	r.HAMK = takeSlot(buf, off, srpHAMKSlot, lenHAMK)
}

func (c *Conn) srpSend(rec *srpRecord) error {
	return c.seqSend(MsgTypeAuth, rec.marshal())
}

func (c *Conn) srpRecv() (*srpRecord, error) {
	body, err := c.seqRecv(MsgTypeAuth, srpRecordLen)
	if err != nil {
		return nil, err
	}
	var rec srpRecord
	rec.unmarshal(body)
	return &rec, nil
}

// AuthUser runs the initiator side of the SRP-6a authentication sequence:
// send username and A, receive salt and B, prove the password with M,
// verify the host's HAMK. On success the connection is AUTHENTICATED and
// the shared session key replaces the key material.
func (c *Conn) AuthUser(user string, pass []byte) error {
	if !bitops.Test(c.statusFlags, StatusInitiated) {
		return errors.Wrap(ErrState, "auth: connection not initiated")
	}

	c.setUser(user)
	c.SetKey(pass)

	usr, err := srp.NewUser(user, pass)
	if err != nil {
		return errors.Wrapf(ErrAuth, "auth: %v", err)
	}

	ident, bytesA := usr.StartAuthentication()
	if err := c.srpSend(&srpRecord{username: ident, A: bytesA}); err != nil {
		return err
	}

	rec, err := c.srpRecv()
	if err != nil {
		return err
	}

	bytesM, err := usr.ProcessChallenge(rec.salt, rec.B)
	if err != nil {
		return errors.Wrapf(ErrAuth, "auth: %v", err)
	}

	if err := c.srpSend(&srpRecord{M: bytesM}); err != nil {
		return err
	}

	rec, err = c.srpRecv()
	if err != nil {
		return err
	}

	usr.VerifySession(rec.HAMK)
	if !usr.IsAuthenticated() {
		return errors.Wrap(ErrAuth, "auth: host proof rejected")
	}

	c.SetKey(usr.SessionKey())
	bitops.Set(&c.statusFlags, StatusAuthenticated)
	return nil
}

// AuthHost runs the responder side of the SRP-6a authentication sequence
// against a pre-bound username and password.
func (c *Conn) AuthHost(user string, pass []byte) error {
	return c.authHost(func(string) (string, []byte, error) {
		return user, pass, nil
	})
}

// AuthHostLookup is AuthHost with the credentials resolved by callback from
// the username received in the first authentication packet.
func (c *Conn) AuthHostLookup(lookup func(username string) ([]byte, error)) error {
	return c.authHost(func(username string) (string, []byte, error) {
		pass, err := lookup(username)
		return username, pass, err
	})
}

func (c *Conn) authHost(credentials func(username string) (string, []byte, error)) error {
	if !bitops.Test(c.statusFlags, StatusInitiated) {
		return errors.Wrap(ErrState, "auth: connection not initiated")
	}

	rec, err := c.srpRecv()
	if err != nil {
		return err
	}

	user, pass, err := credentials(rec.username)
	if err != nil {
		return errors.Wrapf(ErrAuth, "auth: credentials for %q: %v", rec.username, err)
	}

	c.setUser(user)
	c.SetKey(pass)

	salt, verifier, err := srp.CreateSaltedVerificationKey(user, pass)
	if err != nil {
		return errors.Wrapf(ErrAuth, "auth: %v", err)
	}

	ver, bytesB, err := srp.NewVerifier(user, salt, verifier, rec.A)
	if err != nil {
		return errors.Wrapf(ErrAuth, "auth: %v", err)
	}

	if err := c.srpSend(&srpRecord{salt: salt, B: bytesB}); err != nil {
		return err
	}

	rec, err = c.srpRecv()
	if err != nil {
		return err
	}

	hamk := ver.VerifySession(rec.M)
	if hamk == nil {
		return errors.Wrap(ErrAuth, "auth: user proof rejected")
	}

	if err := c.srpSend(&srpRecord{HAMK: hamk}); err != nil {
		return err
	}

	c.SetKey(ver.SessionKey())
	bitops.Set(&c.statusFlags, StatusAuthenticated)
	return nil
}
